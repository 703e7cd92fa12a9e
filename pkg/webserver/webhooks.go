package webserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/integration"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/utils"
)

// CreateWebhookRequest represents the request to subscribe a webhook
type CreateWebhookRequest struct {
	EventType   string `json:"event_type" binding:"required"`
	EndpointURL string `json:"endpoint_url" binding:"required"`
	SecretKey   string `json:"secret_key"`
	Active      *bool  `json:"active"`
}

// UpdateWebhookRequest represents the request to update a webhook
type UpdateWebhookRequest struct {
	EventType   string  `json:"event_type"`
	EndpointURL string  `json:"endpoint_url"`
	SecretKey   *string `json:"secret_key"`
	Active      *bool   `json:"active"`
}

// listWebhooks returns all webhooks registered for an integration
func (s *Server) listWebhooks(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	repo := s.manager.Repository()
	if _, err := repo.GetIntegrationByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to get integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list webhooks"))
		return
	}

	webhooks, err := repo.GetWebhooksByIntegrationID(id)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list webhooks")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list webhooks"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(webhooks, "Webhooks retrieved successfully"))
}

// createWebhook subscribes a webhook under an integration. A secret is
// generated when none is supplied; it is returned once in the response and
// never serialized afterwards.
func (s *Server) createWebhook(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	if !s.validator.ValidateEventType(req.EventType) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid event type"))
		return
	}
	if !s.validator.ValidateURL(req.EndpointURL) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid endpoint URL"))
		return
	}

	repo := s.manager.Repository()
	if _, err := repo.GetIntegrationByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to get integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to create webhook"))
		return
	}

	secret := req.SecretKey
	if secret == "" {
		generated, err := s.tokens.GenerateWebhookSecret()
		if err != nil {
			s.logger.WithError(err).Error("Failed to generate webhook secret")
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to create webhook"))
			return
		}
		secret = generated
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	webhook := &models.Webhook{
		IntegrationID: id,
		EventType:     req.EventType,
		EndpointURL:   req.EndpointURL,
		SecretKey:     secret,
		Active:        active,
	}
	if err := repo.CreateWebhook(webhook); err != nil {
		s.logger.WithError(err).Error("Failed to create webhook")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to create webhook"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(gin.H{
		"webhook":    webhook,
		"secret_key": secret,
	}, "Webhook created successfully"))
}

// reloadWebhooks refreshes the dispatch cache for an active integration so
// webhook changes take effect without a reactivation cycle
func (s *Server) reloadWebhooks(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.manager.ReloadWebhooks(id); err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found or inactive"))
			return
		}
		s.logger.WithError(err).Error("Failed to reload webhooks")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to reload webhooks"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Webhooks reloaded successfully"))
}

// updateWebhook updates a webhook row. The dispatch cache picks the change up
// on the next reload or activation.
func (s *Server) updateWebhook(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	repo := s.manager.Repository()
	webhook, err := repo.GetWebhookByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Webhook not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to get webhook")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to update webhook"))
		return
	}

	if req.EventType != "" {
		if !s.validator.ValidateEventType(req.EventType) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid event type"))
			return
		}
		webhook.EventType = req.EventType
	}
	if req.EndpointURL != "" {
		if !s.validator.ValidateURL(req.EndpointURL) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid endpoint URL"))
			return
		}
		webhook.EndpointURL = req.EndpointURL
	}
	if req.SecretKey != nil {
		webhook.SecretKey = *req.SecretKey
	}
	if req.Active != nil {
		webhook.Active = *req.Active
	}

	if err := repo.UpdateWebhook(webhook); err != nil {
		s.logger.WithError(err).Error("Failed to update webhook")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to update webhook"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(webhook, "Webhook updated successfully"))
}

// deleteWebhook removes a webhook row
func (s *Server) deleteWebhook(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	repo := s.manager.Repository()
	if _, err := repo.GetWebhookByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Webhook not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to get webhook")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to delete webhook"))
		return
	}

	if err := repo.DeleteWebhook(id); err != nil {
		s.logger.WithError(err).Error("Failed to delete webhook")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to delete webhook"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Webhook deleted successfully"))
}

// testWebhook sends a single test.ping delivery to one webhook endpoint
func (s *Server) testWebhook(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	repo := s.manager.Repository()
	webhook, err := repo.GetWebhookByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Webhook not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to get webhook")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to test webhook"))
		return
	}

	delivered := s.manager.SendTest(c.Request.Context(), *webhook)
	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{
		"delivered": delivered,
	}, "Test delivery attempted"))
}

// handleIncomingHook receives a webhook posted by an external system. The
// integration is addressed by UUID and must be active. When the integration
// config carries an incoming_secret, the X-Webhook-Signature header must
// verify against it.
func (s *Server) handleIncomingHook(c *gin.Context) {
	uuid := c.Param("uuid")

	repo := s.manager.Repository()
	integ, err := repo.GetIntegrationByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to get integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to receive webhook"))
		return
	}

	if !s.manager.IsActive(integ.ID) {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Failed to read request body"))
		return
	}

	if secret := integ.Config.GetString("incoming_secret", ""); secret != "" {
		signature := c.GetHeader("X-Webhook-Signature")
		if !integration.VerifySignature(secret, body, signature) {
			s.logger.LogIncoming(integ.ID, c.ClientIP(), false, "signature verification failed")
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid signature"))
			return
		}
	}

	requestData := models.JSON{"body": string(body)}
	entry := &models.IntegrationLog{
		IntegrationID: integ.ID,
		EventType:     "incoming",
		Direction:     models.DirectionIncoming,
		Status:        models.LogSuccess,
		RequestData:   requestData,
	}
	if err := repo.CreateLog(entry); err != nil {
		s.logger.WithError(err).WithField("integration_id", integ.ID).Error("Failed to write integration log")
	}

	s.logger.LogIncoming(integ.ID, c.ClientIP(), true, "")
	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Webhook received"))
}

// parseDaysQuery reads a ?days= query parameter with a default
func parseDaysQuery(c *gin.Context, fallback int) int {
	raw := c.Query("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}
