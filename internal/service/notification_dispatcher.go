package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/pkg/jobs"
)

// Notifier accepts notifications for asynchronous delivery. Delivery failures
// are never reported to the caller.
type Notifier interface {
	Notify(ctx context.Context, req models.CreateNotificationRequest)
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

type eventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

const notificationJobType = "notification"

// NotificationDispatcher persists notifications on a worker pool and forwards
// them to the event bus when one is configured.
type NotificationDispatcher struct {
	queue     *jobs.Queue
	store     notificationWriter
	publisher eventPublisher
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationDispatcher wires the dispatcher and its queue. publisher may be nil.
func NewNotificationDispatcher(store notificationWriter, publisher eventPublisher, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig) *NotificationDispatcher {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &NotificationDispatcher{store: store, publisher: publisher, validator: validate, metrics: metrics, logger: logger}
	cfg.Logger = logger
	d.queue = jobs.NewQueue("notifications", d.deliver, cfg)
	return d
}

// Start launches the delivery workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop halts the workers. Undelivered notifications are dropped.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// Notify validates req and enqueues it without blocking.
func (d *NotificationDispatcher) Notify(ctx context.Context, req models.CreateNotificationRequest) {
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}
	if err := d.validator.Struct(req); err != nil {
		d.logger.Warn("notification rejected", zap.String("user_id", req.UserID), zap.Error(err))
		d.metrics.RecordNotification("invalid")
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: notificationJobType, Payload: req}
	if err := d.queue.TryEnqueue(job); err != nil {
		d.logger.Warn("notification dropped", zap.String("user_id", req.UserID), zap.String("type", string(req.Type)), zap.Error(err))
		d.metrics.RecordNotification("dropped")
		return
	}
	d.metrics.RecordNotification("queued")
}

func (d *NotificationDispatcher) deliver(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(models.CreateNotificationRequest)
	if !ok {
		d.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	n := &models.Notification{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Priority: req.Priority,
		Data:     models.JSONMap(req.Data),
	}
	if err := d.store.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	d.metrics.RecordNotification("delivered")

	if d.publisher == nil {
		return nil
	}
	event := models.NotificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Priority:  n.Priority,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
	// the row is already stored; a failed publish must not trigger a retry
	if err := d.publisher.Publish(ctx, n.UserID, event); err != nil {
		d.logger.Warn("notification event not published", zap.String("notification_id", n.ID), zap.Error(err))
	}
	return nil
}
