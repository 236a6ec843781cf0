package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/repository"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type mockScholarshipRepo struct {
	scholarships map[string]*models.Scholarship
	applications []*models.ScholarshipApplication
}

func newMockScholarshipRepo(items ...models.Scholarship) *mockScholarshipRepo {
	m := &mockScholarshipRepo{scholarships: map[string]*models.Scholarship{}}
	for i := range items {
		s := items[i]
		m.scholarships[s.ID] = &s
	}
	return m
}

func (m *mockScholarshipRepo) Create(ctx context.Context, s *models.Scholarship) error {
	s.ID = "sch-new"
	copy := *s
	m.scholarships[s.ID] = &copy
	return nil
}

func (m *mockScholarshipRepo) FindByID(ctx context.Context, id string) (*models.Scholarship, error) {
	s, ok := m.scholarships[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *s
	return &copy, nil
}

func (m *mockScholarshipRepo) List(ctx context.Context, filter models.ScholarshipFilter) ([]models.Scholarship, int, error) {
	var out []models.Scholarship
	for _, s := range m.scholarships {
		if s.Status == filter.Status {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (m *mockScholarshipRepo) UpdateLocked(ctx context.Context, id string, mutate func(*models.Scholarship) error) (*models.Scholarship, error) {
	s, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(s); err != nil {
		return nil, err
	}
	m.scholarships[id] = s
	return s, nil
}

func (m *mockScholarshipRepo) Delete(ctx context.Context, id string) error {
	delete(m.scholarships, id)
	return nil
}

func (m *mockScholarshipRepo) Apply(ctx context.Context, app *models.ScholarshipApplication, check func(*models.Scholarship) error) (*models.Scholarship, error) {
	s, ok := m.scholarships[app.ScholarshipID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	locked := *s
	if err := check(&locked); err != nil {
		return nil, err
	}
	for _, existing := range m.applications {
		if existing.ScholarshipID == app.ScholarshipID && existing.ApplicantID == app.ApplicantID {
			return nil, repository.ErrDuplicate
		}
	}
	app.ID = "app-" + app.ApplicantID
	app.Status = models.ScholarshipAppPending
	m.applications = append(m.applications, app)
	s.CurrentApplications++
	locked.CurrentApplications++
	return &locked, nil
}

func (m *mockScholarshipRepo) ListApplications(ctx context.Context, scholarshipID string, page, pageSize int) ([]models.ScholarshipApplication, int, error) {
	apps, _ := m.AllApplications(ctx, scholarshipID)
	return apps, len(apps), nil
}

func (m *mockScholarshipRepo) ListByApplicant(ctx context.Context, applicantID string, page, pageSize int) ([]models.ScholarshipApplication, int, error) {
	var out []models.ScholarshipApplication
	for _, a := range m.applications {
		if a.ApplicantID == applicantID {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (m *mockScholarshipRepo) AllApplications(ctx context.Context, scholarshipID string) ([]models.ScholarshipApplication, error) {
	var out []models.ScholarshipApplication
	for _, a := range m.applications {
		if a.ScholarshipID == scholarshipID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockScholarshipRepo) ReviewApplication(ctx context.Context, scholarshipID, applicationID string, review func(*models.ScholarshipApplication) error) (*models.ScholarshipApplication, error) {
	for _, a := range m.applications {
		if a.ID == applicationID && a.ScholarshipID == scholarshipID {
			copy := *a
			if err := review(&copy); err != nil {
				return nil, err
			}
			*a = copy
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

var (
	alumniCaller = Caller{ID: "alum-1", Role: models.RoleAlumni}
	studentCaller = Caller{ID: "stud-1", Role: models.RoleStudent}
)

var longStatement = strings.Repeat("I would like to study engineering. ", 3)

func openScholarship(current, max int) models.Scholarship {
	return models.Scholarship{
		ID:                  "sch-1",
		CreatorID:           alumniCaller.ID,
		Title:               "STEM Fund",
		Status:              models.ScholarshipActive,
		ApplicationDeadline: time.Now().Add(24 * time.Hour),
		CurrentApplications: current,
		MaxApplications:     max,
	}
}

func TestScholarshipApplyFullIsConflictWithoutInsert(t *testing.T) {
	repo := newMockScholarshipRepo(openScholarship(3, 3))
	svc := NewScholarshipService(repo, &recordingNotifier{}, nil, nil, nil)

	_, err := svc.Apply(context.Background(), studentCaller, "sch-1", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, repo.applications)
	assert.Equal(t, 3, repo.scholarships["sch-1"].CurrentApplications)
}

func TestScholarshipApplyStateChecks(t *testing.T) {
	closed := openScholarship(0, 5)
	closed.Status = models.ScholarshipClosed
	expired := openScholarship(0, 5)
	expired.ID = "sch-2"
	expired.ApplicationDeadline = time.Now().Add(-time.Hour)
	svc := NewScholarshipService(newMockScholarshipRepo(closed, expired), nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, studentCaller, "sch-1", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))

	_, err = svc.Apply(ctx, studentCaller, "sch-2", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))

	_, err = svc.Apply(ctx, alumniCaller, "sch-1", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Apply(ctx, studentCaller, "missing", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestScholarshipApplyDuplicateAndNotify(t *testing.T) {
	repo := newMockScholarshipRepo(openScholarship(0, 5))
	notifier := &recordingNotifier{}
	svc := NewScholarshipService(repo, notifier, nil, nil, nil)
	ctx := context.Background()

	app, err := svc.Apply(ctx, studentCaller, "sch-1", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	require.NoError(t, err)
	assert.Equal(t, models.ScholarshipAppPending, app.Status)
	assert.Equal(t, 1, repo.scholarships["sch-1"].CurrentApplications)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, alumniCaller.ID, notifier.sent[0].UserID)

	_, err = svc.Apply(ctx, studentCaller, "sch-1", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestScholarshipReviewIsTerminal(t *testing.T) {
	repo := newMockScholarshipRepo(openScholarship(0, 5))
	notifier := &recordingNotifier{}
	svc := NewScholarshipService(repo, notifier, nil, nil, nil)
	ctx := context.Background()

	app, err := svc.Apply(ctx, studentCaller, "sch-1", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	require.NoError(t, err)

	_, err = svc.Review(ctx, studentCaller, "sch-1", app.ID, models.ReviewScholarshipApplicationRequest{Status: models.ScholarshipAppApproved})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	reviewed, err := svc.Review(ctx, alumniCaller, "sch-1", app.ID, models.ReviewScholarshipApplicationRequest{Status: models.ScholarshipAppApproved})
	require.NoError(t, err)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, alumniCaller.ID, *reviewed.ReviewedBy)
	assert.Contains(t, notifier.messages(), "Congratulations! Your application for STEM Fund has been approved")

	_, err = svc.Review(ctx, alumniCaller, "sch-1", app.ID, models.ReviewScholarshipApplicationRequest{Status: models.ScholarshipAppRejected})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestScholarshipUpdateCannotShrinkBelowApplications(t *testing.T) {
	repo := newMockScholarshipRepo(openScholarship(4, 10))
	svc := NewScholarshipService(repo, nil, nil, nil, nil)
	three := 3

	_, err := svc.Update(context.Background(), alumniCaller, "sch-1", models.UpdateScholarshipRequest{MaxApplications: &three})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
	assert.Equal(t, 10, repo.scholarships["sch-1"].MaxApplications)
}

func TestScholarshipExportApplicationsCSV(t *testing.T) {
	repo := newMockScholarshipRepo(openScholarship(0, 5))
	svc := NewScholarshipService(repo, nil, nil, nil, nil)
	ctx := context.Background()
	_, err := svc.Apply(ctx, studentCaller, "sch-1", models.ApplyScholarshipRequest{PersonalStatement: longStatement})
	require.NoError(t, err)

	file, err := svc.ExportApplications(ctx, alumniCaller, "sch-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "application_id,applicant_id,status,submitted_at,reviewed_at\n"))
	assert.Contains(t, string(file.Data), "app-stud-1,stud-1,pending")

	_, err = svc.ExportApplications(ctx, studentCaller, "sch-1", "csv")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.ExportApplications(ctx, alumniCaller, "sch-1", "xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
