package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/internal/services"
	"github.com/securedesk/visitor-backend/internal/utils"
)

// ErrorResponse is the JSON error body shared by all handlers
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// AuthHandler handles staff authentication HTTP requests
type AuthHandler struct {
	auth   *services.AuthService
	audit  *services.AuditService
	logger *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, audit *services.AuditService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		audit:  audit,
		logger: logger,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	resp, err := h.auth.Login(&req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid email or password",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	h.audit.Record(services.AuditEvent{
		ActorID:   &resp.User.ID,
		Action:    models.AuditLogin,
		Detail:    "staff login",
		IPAddress: utils.GetRealIP(c),
		UserAgent: c.Request.UserAgent(),
	})

	c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	resp, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
			Code:    "INVALID_REFRESH_TOKEN",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
