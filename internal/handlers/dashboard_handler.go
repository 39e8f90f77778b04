package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/securedesk/visitor-backend/internal/middleware"
	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/internal/services"
)

// DashboardHandler serves the front-desk dashboard aggregates
type DashboardHandler struct {
	dashboard *services.DashboardService
	logger    *logrus.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *services.DashboardService, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger,
	}
}

// Stats handles GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	var user *models.User
	if userCtx, exists := middleware.GetUserContext(c); exists {
		user = &models.User{
			ID:    userCtx.UserID,
			Email: userCtx.Email,
			Roles: userCtx.Roles,
		}
	}

	stats, err := h.dashboard.Stats(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute dashboard stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to compute dashboard stats",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
