package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/utils"
)

// getDeliveryStats returns per-integration delivery success counts
func (s *Server) getDeliveryStats(c *gin.Context) {
	stats, err := s.manager.Repository().GetDeliveryStats()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get delivery stats")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to get delivery stats"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(stats, "Delivery stats retrieved successfully"))
}

// getErrorRates returns per-integration error rates over a day window
func (s *Server) getErrorRates(c *gin.Context) {
	days := parseDaysQuery(c, 7)

	rates, err := s.manager.Repository().GetErrorRates(days)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get error rates")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to get error rates"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(rates, "Error rates retrieved successfully"))
}

// getLogVolume returns daily log volume over a day window
func (s *Server) getLogVolume(c *gin.Context) {
	days := parseDaysQuery(c, 30)

	volume, err := s.manager.Repository().GetLogVolumeOverTime(days)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get log volume")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to get log volume"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(volume, "Log volume retrieved successfully"))
}

// getEventTypeBreakdown returns log counts grouped by event type
func (s *Server) getEventTypeBreakdown(c *gin.Context) {
	breakdown, err := s.manager.Repository().GetEventTypeBreakdown()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get event type breakdown")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to get event type breakdown"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(breakdown, "Event type breakdown retrieved successfully"))
}
