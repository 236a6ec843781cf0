package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindForUser(ctx context.Context, id, userID string) (*models.Notification, error)
	List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error)
	SetRead(ctx context.Context, id, userID string, read bool) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
	Stats(ctx context.Context, userID string) (*models.NotificationStats, error)
}

// NotificationService manages the caller's inbox. Every query is scoped by
// user id, so notifications of other users read as missing.
type NotificationService struct {
	repo      notificationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, validator: validate, logger: logger}
}

// Create stores a notification addressed to the caller.
func (s *NotificationService) Create(ctx context.Context, caller Caller, req models.CreateNotificationRequest) (*models.Notification, error) {
	req.UserID = caller.ID
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid notification payload")
	}
	n := &models.Notification{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Priority: req.Priority,
		Data:     models.JSONMap(req.Data),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, internalError(err, "failed to create notification")
	}
	return n, nil
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, caller Caller, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, caller.ID, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list notifications")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one of the caller's notifications.
func (s *NotificationService) Get(ctx context.Context, caller Caller, id string) (*models.Notification, error) {
	n, err := s.repo.FindForUser(ctx, id, caller.ID)
	if err != nil {
		return nil, storeError(err, "notification", "", "failed to load notification")
	}
	return n, nil
}

// MarkRead sets the read flag of one notification.
func (s *NotificationService) MarkRead(ctx context.Context, caller Caller, id string, req models.UpdateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid notification payload")
	}
	n, err := s.repo.SetRead(ctx, id, caller.ID, *req.IsRead)
	if err != nil {
		return nil, storeError(err, "notification", "", "failed to update notification")
	}
	return n, nil
}

// MarkAllRead marks the whole inbox as read and returns the number of rows changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, caller Caller) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, caller.ID)
	if err != nil {
		return 0, internalError(err, "failed to mark notifications as read")
	}
	return count, nil
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, caller Caller, id string) error {
	if err := s.repo.Delete(ctx, id, caller.ID); err != nil {
		return storeError(err, "notification", "", "failed to delete notification")
	}
	return nil
}

// Stats summarises the caller's inbox.
func (s *NotificationService) Stats(ctx context.Context, caller Caller) (*models.NotificationStats, error) {
	stats, err := s.repo.Stats(ctx, caller.ID)
	if err != nil {
		return nil, internalError(err, "failed to load notification stats")
	}
	return stats, nil
}
