package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/integration"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/utils"
)

// RegisterIntegrationRequest represents the request to register an integration
type RegisterIntegrationRequest struct {
	Name          string      `json:"name" binding:"required,min=1,max=100"`
	Type          string      `json:"type"`
	Config        models.JSON `json:"config"`
	AuthType      string      `json:"auth_type"`
	AuthConfig    models.JSON `json:"auth_config"`
	SyncFrequency *int        `json:"sync_frequency"`
}

// UpdateIntegrationRequest represents the request to update an integration
type UpdateIntegrationRequest struct {
	Config        models.JSON `json:"config"`
	SyncFrequency *int        `json:"sync_frequency"`
}

// SendToAPIRequest represents a direct API call through an integration
type SendToAPIRequest struct {
	Data     models.JSON `json:"data" binding:"required"`
	Endpoint string      `json:"endpoint"`
}

// parseIDParam extracts the :id path parameter.
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid integration ID"))
		return 0, false
	}
	return uint(id), true
}

// listIntegrations returns all integrations with their cache membership
func (s *Server) listIntegrations(c *gin.Context) {
	integrations, err := s.manager.List()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list integrations")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list integrations"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(integrations, "Integrations retrieved successfully"))
}

// registerIntegration registers a new integration with status inactive
func (s *Server) registerIntegration(c *gin.Context) {
	var req RegisterIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	req.Name = s.validator.SanitizeInput(req.Name)

	integ, err := s.manager.Register(integration.RegisterInput{
		Name:          req.Name,
		Type:          models.IntegrationType(req.Type),
		Config:        req.Config,
		AuthType:      models.AuthType(req.AuthType),
		AuthConfig:    req.AuthConfig,
		SyncFrequency: req.SyncFrequency,
	})
	if err != nil {
		if integration.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(err.Error()))
			return
		}
		s.logger.WithError(err).Error("Failed to register integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to register integration"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(integ, "Integration registered successfully"))
}

// getIntegrationStatus returns an integration with its 10 most recent logs
func (s *Server) getIntegrationStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	status, err := s.manager.GetStatus(id)
	if err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to get integration status")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to get integration status"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(status, "Integration status retrieved successfully"))
}

// updateIntegration updates an integration's config and sync frequency. The
// changes reach the dispatch cache on the next activation.
func (s *Server) updateIntegration(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	repo := s.manager.Repository()
	integ, err := repo.GetIntegrationByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to get integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to get integration"))
		return
	}

	if req.Config != nil {
		integ.Config = req.Config
	}
	if req.SyncFrequency != nil {
		if *req.SyncFrequency < 0 {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse("sync_frequency must not be negative"))
			return
		}
		integ.SyncFrequency = *req.SyncFrequency
	}

	if err := repo.UpdateIntegration(integ); err != nil {
		s.logger.WithError(err).Error("Failed to update integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to update integration"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(integ, "Integration updated successfully"))
}

// deleteIntegration removes an integration with its webhooks and logs
func (s *Server) deleteIntegration(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.manager.Delete(id); err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to delete integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to delete integration"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Integration deleted successfully"))
}

// activateIntegration activates an integration and loads its webhooks
func (s *Server) activateIntegration(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.manager.Activate(id); err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to activate integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to activate integration"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Integration activated successfully"))
}

// deactivateIntegration deactivates an integration and stops its sync timer
func (s *Server) deactivateIntegration(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.manager.Deactivate(id); err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to deactivate integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to deactivate integration"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Integration deactivated successfully"))
}

// sendToAPI issues a direct API call through an active integration
func (s *Server) sendToAPI(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req SendToAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	result, err := s.manager.SendToAPI(c.Request.Context(), id, req.Data, req.Endpoint)
	if err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			c.JSON(http.StatusNotFound, result)
			return
		}
		s.logger.WithError(err).Error("Failed to send API call")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to send API call"))
		return
	}

	c.JSON(http.StatusOK, result)
}

// getTemplates returns the integration template catalog
func (s *Server) getTemplates(c *gin.Context) {
	templates, err := s.manager.Repository().GetTemplates()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get templates")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to get templates"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(templates, "Templates retrieved successfully"))
}
