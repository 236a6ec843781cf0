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

type mockApplicationRepo struct {
	apps map[string]*models.Application
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	app.ID = "app-" + app.UserID
	copy := *app
	m.apps[app.ID] = &copy
	return nil
}

func (m *mockApplicationRepo) FindByIDForUser(ctx context.Context, id, userID string) (*models.Application, error) {
	app, ok := m.apps[id]
	if !ok || app.UserID != userID {
		return nil, sql.ErrNoRows
	}
	copy := *app
	return &copy, nil
}

func (m *mockApplicationRepo) ListByUser(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.Application, int, error) {
	return nil, 0, nil
}

func (m *mockApplicationRepo) Update(ctx context.Context, app *models.Application) error {
	copy := *app
	m.apps[app.ID] = &copy
	return nil
}

func (m *mockApplicationRepo) Delete(ctx context.Context, id, userID string) error {
	if _, err := m.FindByIDForUser(ctx, id, userID); err != nil {
		return err
	}
	delete(m.apps, id)
	return nil
}

func (m *mockApplicationRepo) Stats(ctx context.Context, userID string) (*models.ApplicationStats, error) {
	return &models.ApplicationStats{}, nil
}

func TestApplicationDefaultsAndOwnership(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]*models.Application{}}
	svc := NewApplicationService(repo, nil, nil)
	ctx := context.Background()

	app, err := svc.Create(ctx, studentCaller, models.CreateApplicationRequest{Company: " Acme ", Position: "Intern"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApplied, app.Status)
	assert.Equal(t, "Acme", app.Company)
	assert.False(t, app.ApplicationDate.IsZero())

	_, err = svc.Get(ctx, alumniCaller, app.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.True(t, appErrors.Is(svc.Delete(ctx, alumniCaller, app.ID), appErrors.ErrNotFound))

	// statuses move freely, including back from a final answer
	for _, status := range []models.ApplicationStatus{models.ApplicationRejected, models.ApplicationInterviewing} {
		s := status
		updated, err := svc.Update(ctx, studentCaller, app.ID, models.UpdateApplicationRequest{Status: &s})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	bogus := models.ApplicationStatus("ghosted")
	_, err = svc.Update(ctx, studentCaller, app.ID, models.UpdateApplicationRequest{Status: &bogus})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
