package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nextstep-api/internal/models"
)

const notificationColumns = `id, user_id, title, message, type, priority, is_read, data, created_at, updated_at`

// NotificationRepository persists user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Priority == "" {
		n.Priority = models.PriorityNormal
	}
	if n.Data == nil {
		n.Data = models.JSONMap{}
	}
	const query = `INSERT INTO notifications (` + notificationColumns + `) VALUES (:id, :user_id, :title, :message, :type, :priority, :is_read, :data, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindForUser returns a notification only when it belongs to userID.
func (r *NotificationRepository) FindForUser(ctx context.Context, id, userID string) (*models.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1 AND user_id = $2`
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return &n, nil
}

// List returns the user's notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error) {
	where := squirrel.And{squirrel.Eq{"user_id": userID}}
	if filter.UnreadOnly {
		where = append(where, squirrel.Eq{"is_read": false})
	}
	if filter.Type != "" {
		where = append(where, squirrel.Eq{"type": filter.Type})
	}
	rows := []models.Notification{}
	total, err := pagedSelect{
		columns:  notificationColumns,
		from:     "notifications",
		where:    where,
		orderBy:  "created_at DESC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	}.run(ctx, r.db, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SetRead updates the read flag of an owned notification.
func (r *NotificationRepository) SetRead(ctx context.Context, id, userID string, read bool) (*models.Notification, error) {
	const query = `UPDATE notifications SET is_read = $3, updated_at = $4 WHERE id = $1 AND user_id = $2 RETURNING ` + notificationColumns
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id, userID, read, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("mark notification: %w", err)
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the user as read and returns
// how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE, updated_at = $2 WHERE user_id = $1 AND is_read = FALSE`, userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications rows affected: %w", err)
	}
	return n, nil
}

// Delete removes an owned notification.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireAffected(res, "delete notification")
}

// Stats summarises the user's inbox.
func (r *NotificationRepository) Stats(ctx context.Context, userID string) (*models.NotificationStats, error) {
	var totals struct {
		Total  int `db:"total"`
		Unread int `db:"unread"`
	}
	const totalsQuery = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_read = FALSE) AS unread FROM notifications WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &totals, totalsQuery, userID); err != nil {
		return nil, fmt.Errorf("notification totals: %w", err)
	}

	var byType []models.CountByKey
	const typeQuery = `SELECT type AS key, COUNT(*) AS count FROM notifications WHERE user_id = $1 GROUP BY type`
	if err := r.db.SelectContext(ctx, &byType, typeQuery, userID); err != nil {
		return nil, fmt.Errorf("notification counts by type: %w", err)
	}

	stats := &models.NotificationStats{Total: totals.Total, Unread: totals.Unread, ByType: make(map[string]int, len(byType))}
	for _, row := range byType {
		stats.ByType[row.Key] = row.Count
	}
	return stats, nil
}
