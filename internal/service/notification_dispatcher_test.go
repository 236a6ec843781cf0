package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/pkg/jobs"
)

type memoryNotificationStore struct {
	mu    sync.Mutex
	items []models.Notification
	fail  int
}

func (s *memoryNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return sql.ErrConnDone
	}
	n.ID = "n-" + n.UserID
	n.CreatedAt = time.Now().UTC()
	s.items = append(s.items, *n)
	return nil
}

func (s *memoryNotificationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type capturePublisher struct {
	mu     sync.Mutex
	keys   []string
	events []models.NotificationEvent
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if ev, ok := value.(models.NotificationEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *capturePublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestDispatcherStoresThenPublishes(t *testing.T) {
	store := &memoryNotificationStore{}
	pub := &capturePublisher{}
	metrics := NewMetricsService()
	d := NewNotificationDispatcher(store, pub, nil, metrics, nil, jobs.QueueConfig{Workers: 1, BufferSize: 4})
	d.Start(context.Background())
	defer d.Stop()

	d.Notify(context.Background(), ProjectNotice("user-1", "Solar Roof", ActionFunded, nil))

	require.Eventually(t, func() bool { return pub.published() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, []string{"user-1"}, pub.keys)
	assert.Equal(t, models.PriorityHigh, pub.events[0].Priority)
	assert.Equal(t, "n-user-1", pub.events[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues("delivered")))
}

func TestDispatcherToleratesPublishFailure(t *testing.T) {
	store := &memoryNotificationStore{}
	pub := &capturePublisher{err: errors.New("broker unavailable")}
	d := NewNotificationDispatcher(store, pub, nil, nil, nil, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	d.Start(context.Background())
	defer d.Stop()

	d.Notify(context.Background(), MentorshipNotice("user-2", "Ada", ActionRequested, nil))

	require.Eventually(t, func() bool { return pub.published() == 1 }, time.Second, 5*time.Millisecond)
	// a publish failure is not retried, so the row is stored exactly once
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 1, pub.published())
}

func TestDispatcherRetriesStoreFailures(t *testing.T) {
	store := &memoryNotificationStore{fail: 1}
	d := NewNotificationDispatcher(store, nil, nil, nil, nil, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	d.Start(context.Background())
	defer d.Stop()

	d.Notify(context.Background(), ScholarshipNotice("user-3", "STEM Fund", ActionApproved, nil))

	assert.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDispatcherDropsInvalidAndUnstarted(t *testing.T) {
	store := &memoryNotificationStore{}
	metrics := NewMetricsService()
	d := NewNotificationDispatcher(store, nil, nil, metrics, nil, jobs.QueueConfig{Workers: 1})

	d.Notify(context.Background(), models.CreateNotificationRequest{UserID: "user-4", Title: "Hi", Message: "There", Type: "gossip"})
	d.Notify(context.Background(), ResearchNotice("user-4", "Edge AI", ActionAccepted, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues("dropped")))
	assert.Zero(t, store.count())
}
