package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockShiftDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *ShiftRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewShiftRepository(db, logger)

	return db, mock, repo
}

var shiftTestColumns = []string{
	"id", "tenant_id", "user_id", "start_time", "end_time", "status",
	"created_at", "updated_at",
}

func TestListCompletedInWindow(t *testing.T) {
	db, mock, repo := setupMockShiftDB(t)
	defer db.Close()

	ctx := context.Background()
	tenantID := uuid.New().String()
	userID := uuid.New().String()
	from := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	start := from.Add(8 * time.Hour)
	end := start.Add(10 * time.Hour)

	rows := sqlmock.NewRows(shiftTestColumns).AddRow(
		uuid.New().String(), tenantID, userID, start, end, "completed",
		start, end,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID, from, to).
		WillReturnRows(rows)

	shifts, err := repo.ListCompletedInWindow(ctx, tenantID, from, to)

	require.NoError(t, err)
	require.Len(t, shifts, 1)
	require.NotNil(t, shifts[0].UserID)
	assert.Equal(t, userID, *shifts[0].UserID)
	require.NotNil(t, shifts[0].EndTime)
	assert.Equal(t, "completed", shifts[0].Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListStartedSince_NullableFields(t *testing.T) {
	db, mock, repo := setupMockShiftDB(t)
	defer db.Close()

	ctx := context.Background()
	tenantID := uuid.New().String()
	since := time.Date(2026, 8, 25, 15, 0, 0, 0, time.UTC)
	start := since.Add(2 * time.Hour)

	// 未分配人员且尚无结束时间的班次
	rows := sqlmock.NewRows(shiftTestColumns).AddRow(
		uuid.New().String(), tenantID, nil, start, nil, "in_progress",
		start, start,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID, since).
		WillReturnRows(rows)

	shifts, err := repo.ListStartedSince(ctx, tenantID, since)

	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Nil(t, shifts[0].UserID)
	assert.Nil(t, shifts[0].EndTime)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCompletedInWindow_MissingTenant(t *testing.T) {
	db, _, repo := setupMockShiftDB(t)
	defer db.Close()

	_, err := repo.ListCompletedInWindow(context.Background(), "", time.Now(), time.Now())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_id is required")
}
