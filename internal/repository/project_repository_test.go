package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/models"
)

var projectCols = []string{"id", "owner_id", "title", "description", "category", "funding_goal", "current_funding", "funding_type", "timeline", "expected_outcomes", "team_members", "status", "created_at", "updated_at"}

func projectRow(goal, current float64, status models.ProjectStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(projectCols).
		AddRow("p1", "student-1", "Solar Kiosk", "Solar charging kiosk", "technology", goal, current, "financial", nil, "Ten kiosks deployed", []byte(`["a","b"]`), string(status), now, now)
}

func TestAddFinancialSupportFlipsToFunded(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM projects WHERE id = \\$1 FOR UPDATE").WithArgs("p1").WillReturnRows(projectRow(5000, 0, models.ProjectPending))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("p1", "alumni-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO project_supports").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE projects SET current_funding = current_funding \\+ \\$2").
		WithArgs("p1", 5000.0, models.ProjectFunded, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	support := &models.ProjectSupport{ProjectID: "p1", SupporterID: "alumni-1", SupportType: models.SupportFinancial, SupportAmount: 5000, SupportDescription: "Full funding"}
	result, err := repo.AddSupport(context.Background(), support, func(*models.Project) error { return nil })
	require.NoError(t, err)
	assert.True(t, result.BecameFunded)
	assert.Equal(t, models.ProjectFunded, result.Project.Status)
	assert.Equal(t, 5000.0, result.Project.CurrentFunding)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddNonFinancialSupportLeavesFunding(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(projectRow(5000, 1000, models.ProjectPending))
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO project_supports").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	support := &models.ProjectSupport{ProjectID: "p1", SupporterID: "alumni-2", SupportType: models.SupportMentorship, SupportAmount: 300, SupportDescription: "Weekly mentoring"}
	result, err := repo.AddSupport(context.Background(), support, func(*models.Project) error { return nil })
	require.NoError(t, err)
	assert.False(t, result.BecameFunded)
	assert.Equal(t, 1000.0, result.Project.CurrentFunding)
	assert.Equal(t, models.ProjectPending, result.Project.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSupportDuplicateSupporter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(projectRow(5000, 0, models.ProjectPending))
	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	support := &models.ProjectSupport{ProjectID: "p1", SupporterID: "alumni-1", SupportType: models.SupportFinancial, SupportAmount: 10}
	_, err := repo.AddSupport(context.Background(), support, func(*models.Project) error { return nil })
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
