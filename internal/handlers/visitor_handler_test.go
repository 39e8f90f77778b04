package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/securedesk/visitor-backend/internal/services"
	"github.com/securedesk/visitor-backend/pkg/mailer"
)

// memoryStore implements services.VisitorStore and services.AuditStore for
// handler tests.
type memoryStore struct {
	mu       sync.Mutex
	visitors map[uuid.UUID]*models.Visitor
	audits   []models.AuditLog
}

func newMemoryStore() *memoryStore {
	return &memoryStore{visitors: make(map[uuid.UUID]*models.Visitor)}
}

func (m *memoryStore) Create(v *models.Visitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *v
	m.visitors[v.ID] = &clone
	return nil
}

func (m *memoryStore) GetByID(id uuid.UUID) (*models.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visitors[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "visitor", ID: id.String()}
	}
	clone := *v
	return &clone, nil
}

func (m *memoryStore) TransitionStatus(id uuid.UUID, from, to models.VisitorStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visitors[id]
	if !ok || v.Status != from {
		return false, nil
	}
	v.Status = to
	return true, nil
}

func (m *memoryStore) MarkCheckedIn(id uuid.UUID, checkInTime time.Time, badgeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visitors[id]
	if !ok || v.Status != models.StatusApproved {
		return false, nil
	}
	v.Status = models.StatusCheckedIn
	v.CheckInTime = &checkInTime
	if v.BadgeID == nil {
		v.BadgeID = &badgeID
	}
	return true, nil
}

func (m *memoryStore) MarkCheckedOut(id uuid.UUID, checkOutTime time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visitors[id]
	if !ok || v.Status != models.StatusCheckedIn {
		return false, nil
	}
	v.Status = models.StatusCheckedOut
	v.CheckOutTime = &checkOutTime
	return true, nil
}

func (m *memoryStore) List(filter models.VisitorListFilter, hostID string) ([]models.Visitor, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Visitor{}
	for _, v := range m.visitors {
		if hostID != "" && v.HostID != hostID {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (m *memoryStore) Stats(hostID string, dayStart, dayEnd time.Time) (*models.DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.DashboardStats{}
	for _, v := range m.visitors {
		if hostID != "" && v.HostID != hostID {
			continue
		}
		stats.TotalVisitors++
		if v.Status == models.StatusCheckedIn {
			stats.CheckedIn++
		}
		if v.Status == models.StatusPendingApproval {
			stats.Pending++
		}
	}
	return stats, nil
}

func (m *memoryStore) Insert(entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, *entry)
	return nil
}

func (m *memoryStore) ListByVisitor(visitorID uuid.UUID, limit int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.AuditLog{}
	for _, e := range m.audits {
		if e.VisitorID != nil && *e.VisitorID == visitorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func setupVisitorRouter(t *testing.T) (*gin.Engine, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := newMemoryStore()
	notifier := services.NewNotificationService(mailer.NewDevMailer(logger), logger, "https://visit.example.com")
	visitorService := services.NewVisitorService(store, notifier, logger, "VIS")
	auditService := services.NewAuditService(store, logger, false)
	dashboardService := services.NewDashboardService(store)

	visitorHandler := NewVisitorHandler(visitorService, auditService, logger)
	dashboardHandler := NewDashboardHandler(dashboardService, logger)

	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/visitors", visitorHandler.Create)
	api.POST("/visitors/pre-approve", visitorHandler.PreApprove)
	api.GET("/visitors", visitorHandler.List)
	api.GET("/visitors/:id", visitorHandler.Get)
	api.PUT("/visitors/:id/approve", visitorHandler.Approve)
	api.PUT("/visitors/:id/reject", visitorHandler.Reject)
	api.PUT("/visitors/:id/check-in", visitorHandler.CheckIn)
	api.PUT("/visitors/:id/check-out", visitorHandler.CheckOut)
	api.GET("/dashboard/stats", dashboardHandler.Stats)

	return router, store
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func put(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("PUT", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createVisitor(t *testing.T, router *gin.Engine) models.VisitorResponse {
	t.Helper()
	w := postJSON(t, router, "/api/v1/visitors", gin.H{
		"full_name": "Jordan Silva",
		"email":     "jordan@example.com",
		"purpose":   "Vendor meeting",
		"host_id":   "host-42",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.VisitorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateVisitorEndpoint(t *testing.T) {
	router, _ := setupVisitorRouter(t)

	resp := createVisitor(t, router)
	assert.Equal(t, models.StatusPendingApproval, resp.Visitor.Status)
	assert.Empty(t, resp.QRCode, "pending visitors carry no check-in token")
}

func TestCreateVisitorValidationError(t *testing.T) {
	router, _ := setupVisitorRouter(t)

	w := postJSON(t, router, "/api/v1/visitors", gin.H{
		"full_name": "Jordan Silva",
		"purpose":   "Vendor meeting",
		// host_id missing
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	assert.Contains(t, w.Body.String(), "host_id")
}

func TestApproveEndpoint(t *testing.T) {
	router, _ := setupVisitorRouter(t)
	created := createVisitor(t, router)

	w := put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/approve")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.VisitorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusApproved, resp.Visitor.Status)
	assert.Equal(t, fmt.Sprintf("/visitors/%s/check-in", created.Visitor.ID), resp.QRCode)
}

func TestApproveConflict(t *testing.T) {
	router, _ := setupVisitorRouter(t)
	created := createVisitor(t, router)

	w := put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/approve")
	require.Equal(t, http.StatusOK, w.Code)

	w = put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/approve")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STATE")
	assert.Contains(t, w.Body.String(), "approved")
}

func TestVisitorNotFound(t *testing.T) {
	router, _ := setupVisitorRouter(t)

	w := put(t, router, "/api/v1/visitors/"+uuid.NewString()+"/approve")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "VISITOR_NOT_FOUND")
}

func TestInvalidVisitorID(t *testing.T) {
	router, _ := setupVisitorRouter(t)

	w := put(t, router, "/api/v1/visitors/not-a-uuid/approve")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_VISITOR_ID")
}

func TestCheckInFlow(t *testing.T) {
	router, _ := setupVisitorRouter(t)
	created := createVisitor(t, router)

	put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/approve")

	w := put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/check-in")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.VisitorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusCheckedIn, resp.Visitor.Status)
	require.NotNil(t, resp.Visitor.BadgeID)

	w = put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/check-out")
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusCheckedOut, resp.Visitor.Status)
}

func TestCheckInBeforeWindowOpens(t *testing.T) {
	router, _ := setupVisitorRouter(t)

	start := time.Now().Add(2 * time.Hour)
	end := start.Add(4 * time.Hour)
	w := postJSON(t, router, "/api/v1/visitors/pre-approve", gin.H{
		"full_name":             "Jordan Silva",
		"email":                 "jordan@example.com",
		"purpose":               "Vendor meeting",
		"host_id":               "host-42",
		"approval_window_start": start.Format(time.RFC3339),
		"approval_window_end":   end.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.VisitorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusApproved, created.Visitor.Status)
	assert.True(t, created.Visitor.PreApproved)

	w = put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/check-in")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "WINDOW_EXPIRED")
}

func TestDashboardStatsEndpoint(t *testing.T) {
	router, _ := setupVisitorRouter(t)

	created := createVisitor(t, router)
	createVisitor(t, router)
	put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/approve")
	put(t, router, "/api/v1/visitors/"+created.Visitor.ID.String()+"/check-in")

	req := httptest.NewRequest("GET", "/api/v1/dashboard/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.TotalVisitors)
	assert.Equal(t, int64(1), stats.CheckedIn)
	assert.Equal(t, int64(1), stats.Pending)
}
