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

type mockExpertiseRepo struct {
	byUser     map[string]*models.AlumniExpertise
	lastFilter models.ExpertiseFilter
}

func (m *mockExpertiseRepo) Upsert(ctx context.Context, e *models.AlumniExpertise) (*models.AlumniExpertise, error) {
	if existing, ok := m.byUser[e.UserID]; ok {
		e.ID = existing.ID
	} else {
		e.ID = "exp-" + e.UserID
	}
	copy := *e
	m.byUser[e.UserID] = &copy
	return e, nil
}

func (m *mockExpertiseRepo) FindByID(ctx context.Context, id string) (*models.AlumniExpertise, error) {
	for _, e := range m.byUser {
		if e.ID == id {
			copy := *e
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockExpertiseRepo) List(ctx context.Context, filter models.ExpertiseFilter) ([]models.AlumniExpertise, int, error) {
	m.lastFilter = filter
	return nil, 0, nil
}

func (m *mockExpertiseRepo) Update(ctx context.Context, e *models.AlumniExpertise) error {
	copy := *e
	m.byUser[e.UserID] = &copy
	return nil
}

func (m *mockExpertiseRepo) Delete(ctx context.Context, id string) error {
	for user, e := range m.byUser {
		if e.ID == id {
			delete(m.byUser, user)
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestExpertiseUpsertKeepsOneRecordPerAlumnus(t *testing.T) {
	repo := &mockExpertiseRepo{byUser: map[string]*models.AlumniExpertise{}}
	svc := NewExpertiseService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, studentCaller, models.ExpertiseRequest{ExpertiseArea: "Data"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	first, err := svc.Upsert(ctx, alumniCaller, models.ExpertiseRequest{ExpertiseArea: " Data Science ", YearsExperience: 4})
	require.NoError(t, err)
	assert.Equal(t, "Data Science", first.ExpertiseArea)
	assert.Equal(t, models.AvailabilityAvailable, first.AvailabilityStatus)

	second, err := svc.Upsert(ctx, alumniCaller, models.ExpertiseRequest{ExpertiseArea: "ML", AvailabilityStatus: models.AvailabilityBusy})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.byUser, 1)
	assert.Equal(t, models.AvailabilityBusy, repo.byUser[alumniCaller.ID].AvailabilityStatus)
}

func TestExpertiseOwnerOnlyChanges(t *testing.T) {
	repo := &mockExpertiseRepo{byUser: map[string]*models.AlumniExpertise{}}
	svc := NewExpertiseService(repo, nil, nil)
	ctx := context.Background()
	e, err := svc.Upsert(ctx, alumniCaller, models.ExpertiseRequest{ExpertiseArea: "Finance"})
	require.NoError(t, err)

	other := Caller{ID: "alum-2", Role: models.RoleAlumni}
	_, err = svc.Update(ctx, other, e.ID, models.ExpertiseRequest{ExpertiseArea: "Hijacked"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.True(t, appErrors.Is(svc.Delete(ctx, other, e.ID), appErrors.ErrForbidden))

	_, err = svc.Update(ctx, alumniCaller, e.ID, models.ExpertiseRequest{ExpertiseArea: "Finance", AvailabilityStatus: "asleep"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	require.NoError(t, svc.Delete(ctx, alumniCaller, e.ID))
	_, err = svc.Get(ctx, e.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestExpertiseListDefaultsToAvailable(t *testing.T) {
	repo := &mockExpertiseRepo{byUser: map[string]*models.AlumniExpertise{}}
	svc := NewExpertiseService(repo, nil, nil)

	_, _, err := svc.List(context.Background(), models.ExpertiseFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityAvailable, repo.lastFilter.Availability)
}
