package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type mockMentorshipRepo struct {
	rows map[string]*models.Mentorship
	seq  int
}

func newMockMentorshipRepo() *mockMentorshipRepo {
	return &mockMentorshipRepo{rows: map[string]*models.Mentorship{}}
}

func (m *mockMentorshipRepo) Create(ctx context.Context, row *models.Mentorship) error {
	m.seq++
	row.ID = fmt.Sprintf("m-%d", m.seq)
	copy := *row
	m.rows[row.ID] = &copy
	return nil
}

func (m *mockMentorshipRepo) ExistsPair(ctx context.Context, mentorID, menteeID string) (bool, error) {
	for _, r := range m.rows {
		if r.MentorID == mentorID && r.MenteeID == menteeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMentorshipRepo) FindByID(ctx context.Context, id string) (*models.Mentorship, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *r
	return &copy, nil
}

func (m *mockMentorshipRepo) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]models.Mentorship, int, error) {
	var out []models.Mentorship
	for _, r := range m.rows {
		if r.MentorID == userID || r.MenteeID == userID {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (m *mockMentorshipRepo) ListForMentor(ctx context.Context, mentorID string, status models.MentorshipStatus, page, pageSize int) ([]models.Mentorship, int, error) {
	var out []models.Mentorship
	for _, r := range m.rows {
		if r.MentorID == mentorID && r.Status == status {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (m *mockMentorshipRepo) Respond(ctx context.Context, id string, status models.MentorshipStatus, message *string) (*models.Mentorship, error) {
	r, ok := m.rows[id]
	if !ok || r.Status != models.MentorshipPending {
		return nil, sql.ErrNoRows
	}
	r.Status = status
	copy := *r
	return &copy, nil
}

func (m *mockMentorshipRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

const (
	mentorID = "6f1c7a52-0d8e-4a4f-9b43-3f0b1b6e0a01"
	menteeID = "6f1c7a52-0d8e-4a4f-9b43-3f0b1b6e0a02"
)

func newMentorshipFixture() (*MentorshipService, *mockMentorshipRepo, *recordingNotifier) {
	users := newMockUserRepo(
		models.User{ID: mentorID, FullName: "Ada Mentor", Role: models.RoleAlumni, Active: true},
		models.User{ID: menteeID, FullName: "Sam Student", Role: models.RoleStudent, Active: true},
	)
	repo := newMockMentorshipRepo()
	notifier := &recordingNotifier{}
	return NewMentorshipService(repo, users, notifier, nil, nil, nil), repo, notifier
}

func TestMentorshipRequestNotifiesMentor(t *testing.T) {
	svc, _, notifier := newMentorshipFixture()

	m, err := svc.Request(context.Background(), Caller{ID: menteeID}, models.CreateMentorshipRequest{MentorID: mentorID})
	require.NoError(t, err)
	assert.Equal(t, models.MentorshipPending, m.Status)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, mentorID, notifier.sent[0].UserID)
	assert.Equal(t, "Sam Student has requested mentorship", notifier.sent[0].Message)
	assert.Equal(t, models.NotificationMentorship, notifier.sent[0].Type)
}

func TestMentorshipDuplicatePairConflictsButReciprocalAllowed(t *testing.T) {
	svc, _, _ := newMentorshipFixture()
	ctx := context.Background()

	_, err := svc.Request(ctx, Caller{ID: menteeID}, models.CreateMentorshipRequest{MentorID: mentorID})
	require.NoError(t, err)

	_, err = svc.Request(ctx, Caller{ID: menteeID}, models.CreateMentorshipRequest{MentorID: mentorID})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.Request(ctx, Caller{ID: mentorID}, models.CreateMentorshipRequest{MentorID: menteeID})
	assert.NoError(t, err)
}

func TestMentorshipSelfRequestIsInvalidState(t *testing.T) {
	svc, _, _ := newMentorshipFixture()

	_, err := svc.Request(context.Background(), Caller{ID: mentorID}, models.CreateMentorshipRequest{MentorID: mentorID})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestMentorshipUnknownMentorIsNotFound(t *testing.T) {
	svc, _, _ := newMentorshipFixture()

	_, err := svc.Request(context.Background(), Caller{ID: menteeID}, models.CreateMentorshipRequest{MentorID: "6f1c7a52-0d8e-4a4f-9b43-3f0b1b6e0aff"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestMentorshipUpdateStatusRules(t *testing.T) {
	svc, _, notifier := newMentorshipFixture()
	ctx := context.Background()

	m, err := svc.Request(ctx, Caller{ID: menteeID}, models.CreateMentorshipRequest{MentorID: mentorID})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, Caller{ID: menteeID}, m.ID, models.UpdateMentorshipRequest{Status: models.MentorshipAccepted})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound), "mentee cannot answer")

	updated, err := svc.UpdateStatus(ctx, Caller{ID: mentorID}, m.ID, models.UpdateMentorshipRequest{Status: models.MentorshipAccepted})
	require.NoError(t, err)
	assert.Equal(t, models.MentorshipAccepted, updated.Status)
	assert.Contains(t, notifier.messages(), "Ada Mentor has accepted your mentorship request")

	_, err = svc.UpdateStatus(ctx, Caller{ID: mentorID}, m.ID, models.UpdateMentorshipRequest{Status: models.MentorshipRejected})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestMentorshipHiddenFromStrangers(t *testing.T) {
	svc, _, _ := newMentorshipFixture()
	ctx := context.Background()

	m, err := svc.Request(ctx, Caller{ID: menteeID}, models.CreateMentorshipRequest{MentorID: mentorID})
	require.NoError(t, err)

	_, err = svc.Get(ctx, Caller{ID: "stranger"}, m.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	err = svc.Delete(ctx, Caller{ID: "stranger"}, m.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, Caller{ID: mentorID}, m.ID))
}
