package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/repository"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type mockResearchRepo struct {
	collabs       map[string]*models.ResearchCollaboration
	applications  []*models.CollaborationApplication
	participants  []models.CollaborationParticipant
	updates       []models.ResearchUpdate
	includedPrivs []bool
	stats         *models.ResearchStats
	statsCalls    int
}

func newMockResearchRepo(items ...models.ResearchCollaboration) *mockResearchRepo {
	m := &mockResearchRepo{collabs: map[string]*models.ResearchCollaboration{}}
	for i := range items {
		c := items[i]
		m.collabs[c.ID] = &c
	}
	return m
}

func (m *mockResearchRepo) Create(ctx context.Context, c *models.ResearchCollaboration) error {
	c.ID = "rc-new"
	copy := *c
	m.collabs[c.ID] = &copy
	return nil
}

func (m *mockResearchRepo) FindByID(ctx context.Context, id string) (*models.ResearchCollaboration, error) {
	c, ok := m.collabs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *c
	return &copy, nil
}

func (m *mockResearchRepo) List(ctx context.Context, filter models.CollaborationFilter) ([]models.ResearchCollaboration, int, error) {
	return nil, 0, nil
}

func (m *mockResearchRepo) UpdateStatusLocked(ctx context.Context, id string, mutate func(*models.ResearchCollaboration) error) (*models.ResearchCollaboration, error) {
	c, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(c); err != nil {
		return nil, err
	}
	m.collabs[id] = c
	return c, nil
}

func (m *mockResearchRepo) Apply(ctx context.Context, app *models.CollaborationApplication, check func(*models.ResearchCollaboration) error) error {
	c, ok := m.collabs[app.CollaborationID]
	if !ok {
		return sql.ErrNoRows
	}
	if err := check(c); err != nil {
		return err
	}
	for _, a := range m.applications {
		if a.CollaborationID == app.CollaborationID && a.ApplicantID == app.ApplicantID {
			return repository.ErrDuplicate
		}
	}
	app.ID = "ca-" + app.ApplicantID
	app.Status = models.CollabAppPending
	copy := *app
	m.applications = append(m.applications, &copy)
	return nil
}

func (m *mockResearchRepo) ListApplications(ctx context.Context, collaborationID string, status models.CollaborationApplicationStatus, page, pageSize int) ([]models.CollaborationApplication, int, error) {
	return nil, 0, nil
}

func (m *mockResearchRepo) ReviewApplication(ctx context.Context, collaborationID, applicationID string, review func(*models.CollaborationApplication, *models.ResearchCollaboration) error) (*models.ReviewOutcome, error) {
	c, ok := m.collabs[collaborationID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	for _, a := range m.applications {
		if a.ID != applicationID {
			continue
		}
		copy := *a
		if err := review(&copy, c); err != nil {
			return nil, err
		}
		*a = copy
		outcome := &models.ReviewOutcome{Application: &copy}
		if copy.Status == models.CollabAppAccepted {
			p := models.CollaborationParticipant{CollaborationID: c.ID, UserID: copy.ApplicantID, Role: models.DefaultParticipantRole, Status: "active"}
			m.participants = append(m.participants, p)
			c.CurrentCollaborators++
			outcome.Participant = &p
		}
		return outcome, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResearchRepo) AddParticipant(ctx context.Context, p *models.CollaborationParticipant, check func(*models.ResearchCollaboration) error) error {
	c, ok := m.collabs[p.CollaborationID]
	if !ok {
		return sql.ErrNoRows
	}
	if err := check(c); err != nil {
		return err
	}
	for _, existing := range m.participants {
		if existing.CollaborationID == p.CollaborationID && existing.UserID == p.UserID {
			return repository.ErrDuplicate
		}
	}
	p.Status = "active"
	m.participants = append(m.participants, *p)
	c.CurrentCollaborators++
	return nil
}

func (m *mockResearchRepo) ListParticipants(ctx context.Context, collaborationID string) ([]models.CollaborationParticipant, error) {
	return m.participants, nil
}

func (m *mockResearchRepo) IsActiveParticipant(ctx context.Context, collaborationID, userID string) (bool, error) {
	for _, p := range m.participants {
		if p.CollaborationID == collaborationID && p.UserID == userID && p.Status == "active" {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockResearchRepo) CreateUpdate(ctx context.Context, u *models.ResearchUpdate) error {
	m.updates = append(m.updates, *u)
	return nil
}

func (m *mockResearchRepo) ListUpdates(ctx context.Context, collaborationID, viewerID string, includePrivate bool, page, pageSize int) ([]models.ResearchUpdate, int, error) {
	m.includedPrivs = append(m.includedPrivs, includePrivate)
	return m.updates, len(m.updates), nil
}

func (m *mockResearchRepo) Stats(ctx context.Context) (*models.ResearchStats, error) {
	m.statsCalls++
	return m.stats, nil
}

func (m *mockResearchRepo) PopularAreas(ctx context.Context, limit int) ([]models.AreaPopularity, error) {
	return []models.AreaPopularity{}, nil
}

const researcherID = "6f1c7a52-0d8e-4a4f-9b43-3f0b1b6e0a10"

var letter = strings.Repeat("I have worked on distributed systems research. ", 2)

func openCollaboration(current, max int) models.ResearchCollaboration {
	return models.ResearchCollaboration{
		ID:                   "rc-1",
		LeadResearcherID:     alumniCaller.ID,
		Title:                "Edge AI",
		Status:               models.CollaborationOpen,
		CurrentCollaborators: current,
		MaxCollaborators:     max,
	}
}

func newResearchFixture(c models.ResearchCollaboration) (*ResearchService, *mockResearchRepo, *recordingNotifier) {
	repo := newMockResearchRepo(c)
	users := newMockUserRepo(models.User{ID: researcherID, FullName: "Rae", Active: true})
	notifier := &recordingNotifier{}
	return NewResearchService(repo, users, nil, notifier, nil, nil, nil), repo, notifier
}

func TestResearchApplyGuards(t *testing.T) {
	svc, repo, _ := newResearchFixture(openCollaboration(0, 5))
	ctx := context.Background()
	req := models.ApplyCollaborationRequest{ApplicationLetter: letter}

	_, err := svc.Apply(ctx, alumniCaller, "rc-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState), "lead cannot apply")

	_, err = svc.Apply(ctx, studentCaller, "rc-1", req)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, studentCaller, "rc-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	repo.collabs["rc-1"].CurrentCollaborators = 5
	_, err = svc.Apply(ctx, Caller{ID: "other"}, "rc-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	repo.collabs["rc-1"].Status = models.CollaborationCompleted
	_, err = svc.Apply(ctx, Caller{ID: "late"}, "rc-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestResearchReviewAcceptWhenFullIsConflict(t *testing.T) {
	svc, repo, _ := newResearchFixture(openCollaboration(4, 5))
	ctx := context.Background()
	app, err := svc.Apply(ctx, studentCaller, "rc-1", models.ApplyCollaborationRequest{ApplicationLetter: letter})
	require.NoError(t, err)

	repo.collabs["rc-1"].CurrentCollaborators = 5
	_, err = svc.Review(ctx, alumniCaller, "rc-1", app.ID, models.ReviewCollaborationApplicationRequest{Status: models.CollabAppAccepted})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, repo.participants)
	assert.Equal(t, models.CollabAppPending, repo.applications[0].Status)
}

func TestResearchReviewAcceptAddsParticipant(t *testing.T) {
	svc, repo, notifier := newResearchFixture(openCollaboration(0, 5))
	ctx := context.Background()
	app, err := svc.Apply(ctx, studentCaller, "rc-1", models.ApplyCollaborationRequest{ApplicationLetter: letter})
	require.NoError(t, err)

	_, err = svc.Review(ctx, studentCaller, "rc-1", app.ID, models.ReviewCollaborationApplicationRequest{Status: models.CollabAppAccepted})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	outcome, err := svc.Review(ctx, alumniCaller, "rc-1", app.ID, models.ReviewCollaborationApplicationRequest{Status: models.CollabAppAccepted})
	require.NoError(t, err)
	require.NotNil(t, outcome.Participant)
	assert.Equal(t, studentCaller.ID, outcome.Participant.UserID)
	assert.Equal(t, 1, repo.collabs["rc-1"].CurrentCollaborators)

	for _, n := range notifier.sent {
		assert.Equal(t, models.NotificationSystem, n.Type)
	}
	assert.Contains(t, notifier.messages(), "You have joined the research collaboration Edge AI")

	_, err = svc.Review(ctx, alumniCaller, "rc-1", app.ID, models.ReviewCollaborationApplicationRequest{Status: models.CollabAppRejected})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestResearchAddParticipant(t *testing.T) {
	svc, _, _ := newResearchFixture(openCollaboration(0, 5))
	ctx := context.Background()
	req := models.AddParticipantRequest{UserID: researcherID}

	_, err := svc.AddParticipant(ctx, studentCaller, "rc-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	p, err := svc.AddParticipant(ctx, alumniCaller, "rc-1", req)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultParticipantRole, p.Role)

	_, err = svc.AddParticipant(ctx, alumniCaller, "rc-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestResearchUpdatesAreParticipantGated(t *testing.T) {
	svc, repo, _ := newResearchFixture(openCollaboration(0, 5))
	ctx := context.Background()
	req := models.CreateResearchUpdateRequest{Title: "Week 1", Content: "Collected the dataset"}

	_, err := svc.PostUpdate(ctx, studentCaller, "rc-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.AddParticipant(ctx, alumniCaller, "rc-1", models.AddParticipantRequest{UserID: researcherID})
	require.NoError(t, err)
	u, err := svc.PostUpdate(ctx, Caller{ID: researcherID}, "rc-1", req)
	require.NoError(t, err)
	assert.Equal(t, "progress", u.UpdateType)
	assert.True(t, u.IsPublic)

	_, _, err = svc.ListUpdates(ctx, Caller{ID: researcherID}, "rc-1", 1, 20)
	require.NoError(t, err)
	_, _, err = svc.ListUpdates(ctx, alumniCaller, "rc-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, repo.includedPrivs)
}

func TestResearchStatsUseCacheWhenDisabled(t *testing.T) {
	svc, repo, _ := newResearchFixture(openCollaboration(0, 5))
	repo.stats = &models.ResearchStats{TotalCollaborations: 1}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCollaborations)
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.statsCalls)
}
