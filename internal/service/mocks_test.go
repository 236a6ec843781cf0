package service

import (
	"context"
	"sync"

	"github.com/noah-isme/nextstep-api/internal/models"
)

// recordingNotifier captures notifications instead of queueing them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.CreateNotificationRequest
}

func (r *recordingNotifier) Notify(ctx context.Context, req models.CreateNotificationRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Message)
	}
	return out
}
