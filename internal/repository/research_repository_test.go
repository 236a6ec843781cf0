package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
)

var (
	collaborationCols = []string{"id", "lead_researcher_id", "title", "description", "research_area", "objectives", "methodology", "expected_outcomes", "timeline", "max_collaborators", "current_collaborators", "budget", "requirements", "deliverables", "status", "created_at", "updated_at"}
	collabAppCols     = []string{"id", "collaboration_id", "applicant_id", "application_letter", "research_experience", "relevant_skills", "availability_hours", "proposed_contribution", "status", "reviewed_by", "reviewed_at", "review_notes", "created_at", "updated_at"}
)

func collaborationRow(current, max int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(collaborationCols).
		AddRow("c1", "lead-1", "Coral Reefs", "Reef restoration study", "marine biology", "Map reef health", nil, nil, nil, max, current, nil, nil, nil, "open", now, now)
}

func collabAppRow(status models.CollaborationApplicationStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(collabAppCols).
		AddRow("a1", "c1", "researcher-1", "letter", nil, []byte(`[]`), 10, nil, string(status), nil, nil, nil, now, now)
}

func TestReviewAcceptWhenFullRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResearchRepository(db)

	errFull := errors.New("full")
	mock.ExpectBegin()
	mock.ExpectQuery("FROM research_collaborations WHERE id = \\$1 FOR UPDATE").WithArgs("c1").WillReturnRows(collaborationRow(5, 5))
	mock.ExpectQuery("FROM collaboration_applications WHERE id = \\$1 AND collaboration_id = \\$2 FOR UPDATE").
		WithArgs("a1", "c1").
		WillReturnRows(collabAppRow(models.CollabAppPending))
	mock.ExpectRollback()

	_, err := repo.ReviewApplication(context.Background(), "c1", "a1", func(app *models.CollaborationApplication, c *models.ResearchCollaboration) error {
		if c.Full() {
			return errFull
		}
		app.Status = models.CollabAppAccepted
		return nil
	})
	assert.ErrorIs(t, err, errFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewAcceptAddsParticipant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResearchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM research_collaborations WHERE id = \\$1 FOR UPDATE").WillReturnRows(collaborationRow(2, 5))
	mock.ExpectQuery("FROM collaboration_applications WHERE id = \\$1").WillReturnRows(collabAppRow(models.CollabAppPending))
	mock.ExpectExec("UPDATE collaboration_applications SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM collaboration_participants").
		WithArgs("c1", "researcher-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO collaboration_participants").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE research_collaborations SET current_collaborators = current_collaborators \\+ 1").
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.ReviewApplication(context.Background(), "c1", "a1", func(app *models.CollaborationApplication, c *models.ResearchCollaboration) error {
		app.Status = models.CollabAppAccepted
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Participant)
	assert.Equal(t, "researcher-1", outcome.Participant.UserID)
	assert.Equal(t, models.DefaultParticipantRole, outcome.Participant.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRejectSkipsParticipant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResearchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM research_collaborations WHERE id = \\$1 FOR UPDATE").WillReturnRows(collaborationRow(2, 5))
	mock.ExpectQuery("FROM collaboration_applications WHERE id = \\$1").WillReturnRows(collabAppRow(models.CollabAppPending))
	mock.ExpectExec("UPDATE collaboration_applications SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.ReviewApplication(context.Background(), "c1", "a1", func(app *models.CollaborationApplication, c *models.ResearchCollaboration) error {
		app.Status = models.CollabAppRejected
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, outcome.Participant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUpdatesHidesPrivateFromOthers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResearchRepository(db)

	mock.ExpectQuery("FROM research_updates WHERE \\(collaboration_id = \\$1 AND \\(is_public = \\$2 OR author_id = \\$3\\)\\)").
		WithArgs("c1", true, "viewer").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM research_updates").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.ListUpdates(context.Background(), "c1", "viewer", false, 1, 20)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
