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

type mockProfileRepo struct {
	profiles map[string]*models.Profile
}

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *p
	return &copy, nil
}

func (m *mockProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	copy := *p
	m.profiles[p.UserID] = &copy
	return nil
}

func (m *mockProfileRepo) Update(ctx context.Context, p *models.Profile) error {
	copy := *p
	m.profiles[p.UserID] = &copy
	return nil
}

func (m *mockProfileRepo) Delete(ctx context.Context, userID string) error {
	if _, ok := m.profiles[userID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.profiles, userID)
	return nil
}

func TestProfileLifecycle(t *testing.T) {
	repo := &mockProfileRepo{profiles: map[string]*models.Profile{}}
	users := newMockUserRepo(models.User{ID: studentCaller.ID, Active: true}, models.User{ID: "gone", Active: false})
	svc := NewProfileService(repo, users, nil, nil)
	ctx := context.Background()

	empty, err := svc.Get(ctx, studentCaller)
	require.NoError(t, err)
	assert.Empty(t, empty.Skills)

	_, err = svc.Update(ctx, studentCaller, models.ProfileRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	skills := []string{"go", "sql"}
	bio := "Final year CS"
	_, err = svc.Create(ctx, studentCaller, models.ProfileRequest{Bio: &bio, Skills: &skills})
	require.NoError(t, err)
	_, err = svc.Create(ctx, studentCaller, models.ProfileRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	city := "Jakarta"
	updated, err := svc.Update(ctx, studentCaller, models.ProfileRequest{Location: &city})
	require.NoError(t, err)
	assert.Equal(t, &bio, updated.Bio)
	assert.Equal(t, models.StringList{"go", "sql"}, updated.Skills)

	public, err := svc.GetByUserID(ctx, studentCaller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jakarta", *public.Location)
	_, err = svc.GetByUserID(ctx, "gone")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	badURL := "not a url"
	_, err = svc.Update(ctx, studentCaller, models.ProfileRequest{LinkedInURL: &badURL})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	require.NoError(t, svc.Delete(ctx, studentCaller))
	assert.True(t, appErrors.Is(svc.Delete(ctx, studentCaller), appErrors.ErrNotFound))
}
