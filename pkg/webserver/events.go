package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/utils"
)

// TriggerEventRequest represents a request to fan an event out to all
// subscribed webhooks
type TriggerEventRequest struct {
	EventType string      `json:"event_type" binding:"required"`
	Payload   models.JSON `json:"payload"`
}

// triggerEvent dispatches an event to every matching webhook and returns the
// delivery tally
func (s *Server) triggerEvent(c *gin.Context) {
	var req TriggerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	if !s.validator.ValidateEventType(req.EventType) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid event type"))
		return
	}

	result := s.publisher.Publish(c.Request.Context(), req.EventType, req.Payload)
	c.JSON(http.StatusOK, utils.NewSuccessResponse(result, "Event dispatched"))
}
