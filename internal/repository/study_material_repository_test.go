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

var materialCols = []string{"id", "uploader_id", "title", "description", "subject_code", "subject_name", "file_name", "file_path", "file_size", "file_type", "tags", "is_approved", "approved_by", "approved_at", "download_count", "rating", "rating_count", "created_at", "updated_at"}

func materialRow(approved bool, downloads int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(materialCols).
		AddRow("m1", "u1", "Calculus notes", nil, "MATH101", "Calculus", "notes.pdf", "materials/m1.pdf", int64(2048), ".pdf", []byte(`[]`), approved, nil, nil, downloads, 0.0, 0, now, now)
}

func TestRateRecomputesAggregates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudyMaterialRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM study_materials WHERE id = \\$1 FOR UPDATE").WithArgs("m1").WillReturnRows(materialRow(true, 0))
	mock.ExpectQuery("(?s)INSERT INTO study_material_ratings .*ON CONFLICT \\(material_id, user_id\\) DO UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "material_id", "user_id", "rating", "review", "created_at", "updated_at"}).
			AddRow("r1", "m1", "u2", 4, nil, now, now))
	mock.ExpectQuery("ROUND\\(AVG\\(rating\\)::numeric, 1\\)").WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"rating", "rating_count"}).AddRow(4.5, 2))
	mock.ExpectExec("UPDATE study_materials SET rating = \\$2, rating_count = \\$3").
		WithArgs("m1", 4.5, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rating := &models.StudyMaterialRating{MaterialID: "m1", UserID: "u2", Rating: 4}
	m, err := repo.Rate(context.Background(), rating, func(*models.StudyMaterial) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 4.5, m.Rating)
	assert.Equal(t, 2, m.RatingCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDownloadIncrementsCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudyMaterialRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(materialRow(true, 7))
	mock.ExpectExec("INSERT INTO study_material_downloads").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE study_materials SET download_count = download_count \\+ 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := repo.RecordDownload(context.Background(), "m1", "u2", func(*models.StudyMaterial) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 8, m.DownloadCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMaterialsRestrictsUnapprovedToOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudyMaterialRepository(db)

	mock.ExpectQuery("FROM study_materials WHERE \\(\\(is_approved = \\$1 OR uploader_id = \\$2\\)\\)").
		WithArgs(true, "student-1").
		WillReturnRows(materialRow(false, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM study_materials").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows, total, err := repo.List(context.Background(), models.StudyMaterialFilter{ViewerID: "student-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
