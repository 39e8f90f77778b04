package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/securedesk/visitor-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var visitorTestColumns = []string{
	"id", "full_name", "email", "phone", "company", "purpose", "host_id", "photo_url",
	"status", "pre_approved", "approval_window_start", "approval_window_end",
	"badge_id", "check_in_time", "check_out_time", "created_at", "updated_at",
}

func visitorRow(id uuid.UUID, status models.VisitorStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(visitorTestColumns).AddRow(
		id, "Jane Doe", "jane@example.com", "+14155550100", "Acme", "Interview", "H1", nil,
		status, false, nil, nil,
		nil, nil, nil, now, now,
	)
}

func TestCreateVisitor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVisitorRepository(&mockDatabase{db: db})

	t.Run("Success", func(t *testing.T) {
		v := &models.Visitor{
			ID:        uuid.New(),
			FullName:  "Jane Doe",
			Email:     "jane@example.com",
			HostID:    "H1",
			Purpose:   "Interview",
			Status:    models.StatusPendingApproval,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		mock.ExpectExec(`INSERT INTO visitors`).
			WithArgs(v.ID, v.FullName, v.Email, v.Phone, v.Company, v.Purpose, v.HostID, v.PhotoURL,
				v.Status, v.PreApproved, v.ApprovalWindowStart, v.ApprovalWindowEnd,
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(v)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		v := &models.Visitor{ID: uuid.New(), Status: models.StatusPendingApproval}

		mock.ExpectExec(`INSERT INTO visitors`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(v)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create visitor")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetVisitorByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVisitorRepository(&mockDatabase{db: db})

	t.Run("Success", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM visitors WHERE id`).
			WithArgs(id).
			WillReturnRows(visitorRow(id, models.StatusApproved))

		v, err := repo.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, id, v.ID)
		assert.Equal(t, models.StatusApproved, v.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM visitors WHERE id`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		v, err := repo.GetByID(id)
		assert.Nil(t, v)
		require.Error(t, err)
		assert.True(t, models.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransitionStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVisitorRepository(&mockDatabase{db: db})

	t.Run("Wins CAS", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec(`UPDATE visitors`).
			WithArgs(models.StatusApproved, sqlmock.AnyArg(), id, models.StatusPendingApproval).
			WillReturnResult(sqlmock.NewResult(0, 1))

		won, err := repo.TransitionStatus(id, models.StatusPendingApproval, models.StatusApproved)
		require.NoError(t, err)
		assert.True(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Loses CAS", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec(`UPDATE visitors`).
			WithArgs(models.StatusApproved, sqlmock.AnyArg(), id, models.StatusPendingApproval).
			WillReturnResult(sqlmock.NewResult(0, 0))

		won, err := repo.TransitionStatus(id, models.StatusPendingApproval, models.StatusApproved)
		require.NoError(t, err)
		assert.False(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkCheckedIn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVisitorRepository(&mockDatabase{db: db})

	t.Run("Wins CAS", func(t *testing.T) {
		id := uuid.New()
		checkInAt := time.Now()

		mock.ExpectExec(`UPDATE visitors`).
			WithArgs(checkInAt, "VIS-AB12CD34", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		won, err := repo.MarkCheckedIn(id, checkInAt, "VIS-AB12CD34")
		require.NoError(t, err)
		assert.True(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Checked In", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec(`UPDATE visitors`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		won, err := repo.MarkCheckedIn(id, time.Now(), "VIS-AB12CD34")
		require.NoError(t, err)
		assert.False(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkCheckedOut(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVisitorRepository(&mockDatabase{db: db})

	t.Run("Wins CAS", func(t *testing.T) {
		id := uuid.New()
		checkOutAt := time.Now()

		mock.ExpectExec(`UPDATE visitors`).
			WithArgs(checkOutAt, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		won, err := repo.MarkCheckedOut(id, checkOutAt)
		require.NoError(t, err)
		assert.True(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Checked In", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec(`UPDATE visitors`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		won, err := repo.MarkCheckedOut(id, time.Now())
		require.NoError(t, err)
		assert.False(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListVisitors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVisitorRepository(&mockDatabase{db: db})

	t.Run("Status Filter", func(t *testing.T) {
		id1 := uuid.New()
		id2 := uuid.New()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM visitors WHERE status`).
			WithArgs("checked_in").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		mock.ExpectQuery(`SELECT (.+) FROM visitors WHERE status (.+) ORDER BY created_at DESC`).
			WithArgs("checked_in", 20, 0).
			WillReturnRows(visitorRow(id1, models.StatusCheckedIn).
				AddRow(id2, "Bob Lee", "bob@example.com", "", "Initech", "Audit", "H2", nil,
					models.StatusCheckedIn, false, nil, nil,
					nil, nil, nil, time.Now(), time.Now()))

		visitors, total, err := repo.List(models.VisitorListFilter{Status: "checked_in"}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, visitors, 2)
		assert.Equal(t, id1, visitors[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Host Scoped Empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM visitors WHERE host_id`).
			WithArgs("H9").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery(`SELECT (.+) FROM visitors WHERE host_id (.+) ORDER BY created_at DESC`).
			WithArgs("H9", 20, 0).
			WillReturnRows(sqlmock.NewRows(visitorTestColumns))

		visitors, total, err := repo.List(models.VisitorListFilter{}, "H9")
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Len(t, visitors, 0)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVisitorStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVisitorRepository(&mockDatabase{db: db})

	t.Run("Unscoped", func(t *testing.T) {
		dayStart := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)

		mock.ExpectQuery(`SELECT(.+)COUNT\(\*\)(.+)FROM visitors`).
			WithArgs(dayStart, dayEnd).
			WillReturnRows(sqlmock.NewRows([]string{"total_visitors", "today_visitors", "checked_in", "pending"}).
				AddRow(42, 7, 3, 5))

		stats, err := repo.Stats("", dayStart, dayEnd)
		require.NoError(t, err)
		assert.Equal(t, int64(42), stats.TotalVisitors)
		assert.Equal(t, int64(7), stats.TodayVisitors)
		assert.Equal(t, int64(3), stats.CheckedIn)
		assert.Equal(t, int64(5), stats.Pending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Host Scoped", func(t *testing.T) {
		dayStart := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)

		mock.ExpectQuery(`SELECT(.+)COUNT\(\*\)(.+)FROM visitors(.+)WHERE host_id`).
			WithArgs(dayStart, dayEnd, "H1").
			WillReturnRows(sqlmock.NewRows([]string{"total_visitors", "today_visitors", "checked_in", "pending"}).
				AddRow(4, 1, 1, 2))

		stats, err := repo.Stats("H1", dayStart, dayEnd)
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.TotalVisitors)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Mock database implementation for testing
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
