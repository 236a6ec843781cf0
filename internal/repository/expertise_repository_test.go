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

func TestUpsertExpertiseUsesOnConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExpertiseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "expertise_area", "years_experience", "current_position", "company", "skills", "availability_status", "created_at", "updated_at"}).
		AddRow("existing-id", "alumni-1", "Data Science", 7, nil, nil, []byte(`["python"]`), "available", now, now)
	mock.ExpectQuery("(?s)INSERT INTO alumni_expertise .*ON CONFLICT \\(user_id\\) DO UPDATE SET.*RETURNING").WillReturnRows(rows)

	out, err := repo.Upsert(context.Background(), &models.AlumniExpertise{
		UserID:             "alumni-1",
		ExpertiseArea:      "Data Science",
		YearsExperience:    7,
		Skills:             models.StringList{"python"},
		AvailabilityStatus: models.AvailabilityAvailable,
	})
	require.NoError(t, err)
	assert.Equal(t, "existing-id", out.ID)
	assert.Equal(t, models.StringList{"python"}, out.Skills)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpertiseFiltersByArea(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExpertiseRepository(db)

	mock.ExpectQuery("FROM alumni_expertise WHERE \\(availability_status = \\$1 AND expertise_area ILIKE \\$2\\)").
		WithArgs(models.AvailabilityAvailable, "%data%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM alumni_expertise").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	rows, total, err := repo.List(context.Background(), models.ExpertiseFilter{Availability: models.AvailabilityAvailable, ExpertiseArea: "data"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
