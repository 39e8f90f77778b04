package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/securedesk/visitor-backend/internal/middleware"
	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/internal/services"
	"github.com/securedesk/visitor-backend/internal/utils"
	"github.com/securedesk/visitor-backend/pkg/qrtoken"
)

// VisitorHandler handles visitor lifecycle HTTP requests
type VisitorHandler struct {
	visitors *services.VisitorService
	audit    *services.AuditService
	logger   *logrus.Logger
}

// NewVisitorHandler creates a new visitor handler
func NewVisitorHandler(visitors *services.VisitorService, audit *services.AuditService, logger *logrus.Logger) *VisitorHandler {
	return &VisitorHandler{
		visitors: visitors,
		audit:    audit,
		logger:   logger,
	}
}

// Create handles POST /api/v1/visitors
func (h *VisitorHandler) Create(c *gin.Context) {
	var req models.CreateVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	v, err := h.visitors.Register(&req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recordAudit(c, models.AuditVisitorCreated, v.ID, "visitor registered")

	c.JSON(http.StatusCreated, visitorResponse(v))
}

// PreApprove handles POST /api/v1/visitors/pre-approve
func (h *VisitorHandler) PreApprove(c *gin.Context) {
	var req models.CreateVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	v, err := h.visitors.PreApprove(&req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recordAudit(c, models.AuditVisitorCreated, v.ID, "pre-approved visitor created")

	c.JSON(http.StatusCreated, visitorResponse(v))
}

// Get handles GET /api/v1/visitors/:id
func (h *VisitorHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	v, err := h.visitors.Get(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, visitorResponse(v))
}

// List handles GET /api/v1/visitors
func (h *VisitorHandler) List(c *gin.Context) {
	filter := models.VisitorListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.Limit = limit
	}

	resp, err := h.visitors.List(filter, h.requestUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Approve handles PUT /api/v1/visitors/:id/approve
func (h *VisitorHandler) Approve(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	v, err := h.visitors.Approve(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recordAudit(c, models.AuditVisitorApproved, v.ID, "visitor approved")

	c.JSON(http.StatusOK, visitorResponse(v))
}

// Reject handles PUT /api/v1/visitors/:id/reject
func (h *VisitorHandler) Reject(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	v, err := h.visitors.Reject(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recordAudit(c, models.AuditVisitorRejected, v.ID, "visitor rejected")

	c.JSON(http.StatusOK, visitorResponse(v))
}

// CheckIn handles PUT /api/v1/visitors/:id/check-in
func (h *VisitorHandler) CheckIn(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	v, err := h.visitors.CheckIn(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recordAudit(c, models.AuditCheckIn, v.ID, "visitor checked in")

	c.JSON(http.StatusOK, visitorResponse(v))
}

// CheckOut handles PUT /api/v1/visitors/:id/check-out
func (h *VisitorHandler) CheckOut(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	v, err := h.visitors.CheckOut(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recordAudit(c, models.AuditCheckOut, v.ID, "visitor checked out")

	c.JSON(http.StatusOK, visitorResponse(v))
}

// AuditTrail handles GET /api/v1/visitors/:id/audit
func (h *VisitorHandler) AuditTrail(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	limit := 50
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		limit = l
	}

	entries, err := h.audit.Trail(id, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *VisitorHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid visitor id format",
			Code:    "INVALID_VISITOR_ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// requestUser builds the scoping user from the JWT context. Nil when the
// route is not behind auth middleware.
func (h *VisitorHandler) requestUser(c *gin.Context) *models.User {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		return nil
	}
	return &models.User{
		ID:    userCtx.UserID,
		Email: userCtx.Email,
		Roles: userCtx.Roles,
	}
}

func (h *VisitorHandler) recordAudit(c *gin.Context, action models.AuditAction, visitorID uuid.UUID, detail string) {
	var actorID *uuid.UUID
	if userCtx, exists := middleware.GetUserContext(c); exists {
		id := userCtx.UserID
		actorID = &id
	}

	h.audit.Record(services.AuditEvent{
		ActorID:   actorID,
		VisitorID: &visitorID,
		Action:    action,
		Detail:    detail,
		IPAddress: utils.GetRealIP(c),
		UserAgent: c.Request.UserAgent(),
	})
}

// respondError maps domain errors onto HTTP statuses. Conflicting
// transitions come back as 409 so clients can distinguish workflow races
// from bad input, and window violations as 422 so kiosks can explain timing.
func (h *VisitorHandler) respondError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		})
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
			Code:    "VISITOR_NOT_FOUND",
		})
	case models.IsInvalidState(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_state",
			Message: err.Error(),
			Code:    "INVALID_STATE",
		})
	case models.IsWindowExpired(err):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "window_expired",
			Message: err.Error(),
			Code:    "WINDOW_EXPIRED",
		})
	default:
		h.logger.WithError(err).Error("Unhandled error in visitor handler")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    "INTERNAL_ERROR",
		})
	}
}

// visitorResponse attaches the check-in token once the visitor is cleared
// for check-in. The token string is what the badge QR encodes.
func visitorResponse(v *models.Visitor) models.VisitorResponse {
	resp := models.VisitorResponse{Visitor: v}
	if v.Status == models.StatusApproved || v.Status == models.StatusCheckedIn {
		resp.QRCode = qrtoken.Encode(v.ID.String())
	}
	return resp
}
