package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type mockNotificationRepo struct {
	items map[string]*models.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = "n-" + string(rune('a'+len(m.items)))
	copy := *n
	m.items[n.ID] = &copy
	return nil
}

func (m *mockNotificationRepo) FindForUser(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, ok := m.items[id]
	if !ok || n.UserID != userID {
		return nil, sql.ErrNoRows
	}
	copy := *n
	return &copy, nil
}

func (m *mockNotificationRepo) List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var out []models.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!filter.UnreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	return out, len(out), nil
}

func (m *mockNotificationRepo) SetRead(ctx context.Context, id, userID string, read bool) (*models.Notification, error) {
	n, ok := m.items[id]
	if !ok || n.UserID != userID {
		return nil, sql.ErrNoRows
	}
	n.IsRead = read
	copy := *n
	return &copy, nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var changed int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id, userID string) error {
	n, ok := m.items[id]
	if !ok || n.UserID != userID {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *mockNotificationRepo) Stats(ctx context.Context, userID string) (*models.NotificationStats, error) {
	stats := &models.NotificationStats{ByType: map[string]int{}}
	for _, n := range m.items {
		if n.UserID != userID {
			continue
		}
		stats.Total++
		if !n.IsRead {
			stats.Unread++
		}
		stats.ByType[string(n.Type)]++
	}
	return stats, nil
}

func TestNotificationCreateTargetsCaller(t *testing.T) {
	repo := &mockNotificationRepo{items: map[string]*models.Notification{}}
	svc := NewNotificationService(repo, nil, nil)

	n, err := svc.Create(context.Background(), studentCaller, models.CreateNotificationRequest{
		UserID:  "someone-else",
		Title:   "Reminder",
		Message: "Submit the essay",
		Type:    models.NotificationSystem,
	})
	require.NoError(t, err)
	assert.Equal(t, studentCaller.ID, n.UserID)
	assert.Equal(t, models.PriorityNormal, n.Priority)

	_, err = svc.Create(context.Background(), studentCaller, models.CreateNotificationRequest{Title: "x", Message: "y", Type: "gossip"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestNotificationInboxIsPrivate(t *testing.T) {
	repo := &mockNotificationRepo{items: map[string]*models.Notification{}}
	svc := NewNotificationService(repo, nil, nil)
	ctx := context.Background()
	n, err := svc.Create(ctx, studentCaller, models.CreateNotificationRequest{Title: "Mine", Message: "Private", Type: models.NotificationSystem})
	require.NoError(t, err)

	read := true
	_, err = svc.Get(ctx, alumniCaller, n.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	_, err = svc.MarkRead(ctx, alumniCaller, n.ID, models.UpdateNotificationRequest{IsRead: &read})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.True(t, appErrors.Is(svc.Delete(ctx, alumniCaller, n.ID), appErrors.ErrNotFound))

	_, err = svc.MarkRead(ctx, studentCaller, n.ID, models.UpdateNotificationRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	updated, err := svc.MarkRead(ctx, studentCaller, n.ID, models.UpdateNotificationRequest{IsRead: &read})
	require.NoError(t, err)
	assert.True(t, updated.IsRead)
}

func TestNotificationMarkAllReadAndStats(t *testing.T) {
	repo := &mockNotificationRepo{items: map[string]*models.Notification{}}
	svc := NewNotificationService(repo, nil, nil)
	ctx := context.Background()
	for _, kind := range []models.NotificationType{models.NotificationProject, models.NotificationProject, models.NotificationMentorship} {
		_, err := svc.Create(ctx, studentCaller, models.CreateNotificationRequest{Title: "t", Message: "m", Type: kind})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, studentCaller)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Unread)
	assert.Equal(t, 2, stats.ByType["project"])

	changed, err := svc.MarkAllRead(ctx, studentCaller)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)
	changed, err = svc.MarkAllRead(ctx, studentCaller)
	require.NoError(t, err)
	assert.Zero(t, changed)

	items, page, err := svc.List(ctx, studentCaller, models.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, page.Page)
}
