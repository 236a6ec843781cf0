package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
)

func TestNotificationStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery("COUNT\\(\\*\\) FILTER \\(WHERE is_read = FALSE\\)").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "unread"}).AddRow(5, 2))
	mock.ExpectQuery("GROUP BY type").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("scholarship", 3).AddRow("system", 2))

	stats, err := repo.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Unread)
	assert.Equal(t, map[string]int{"scholarship": 3, "system": 2}, stats.ByType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNotificationDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	n := &models.Notification{UserID: "u1", Title: "Hi", Message: "Hello", Type: models.NotificationSystem}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.Equal(t, models.PriorityNormal, n.Priority)
	assert.NotNil(t, n.Data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAllReadReturnsCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE").WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
