package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/pkg/database"
)

const (
	materialColumns = `id, uploader_id, title, description, subject_code, subject_name, file_name, file_path, file_size, file_type, tags, is_approved, approved_by, approved_at, download_count, rating, rating_count, created_at, updated_at`
	ratingColumns   = `id, material_id, user_id, rating, review, created_at, updated_at`
)

// StudyMaterialRepository persists study materials, downloads and ratings.
type StudyMaterialRepository struct {
	db *sqlx.DB
}

// NewStudyMaterialRepository constructs the repository.
func NewStudyMaterialRepository(db *sqlx.DB) *StudyMaterialRepository {
	return &StudyMaterialRepository{db: db}
}

// Create inserts a material record.
func (r *StudyMaterialRepository) Create(ctx context.Context, m *models.StudyMaterial) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Tags == nil {
		m.Tags = models.StringList{}
	}
	const query = `INSERT INTO study_materials (` + materialColumns + `) VALUES (:id, :uploader_id, :title, :description, :subject_code, :subject_name, :file_name, :file_path, :file_size, :file_type, :tags, :is_approved, :approved_by, :approved_at, :download_count, :rating, :rating_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create study material: %w", err)
	}
	return nil
}

// FindByID returns a material by id.
func (r *StudyMaterialRepository) FindByID(ctx context.Context, id string) (*models.StudyMaterial, error) {
	const query = `SELECT ` + materialColumns + ` FROM study_materials WHERE id = $1`
	var m models.StudyMaterial
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find study material: %w", err)
	}
	return &m, nil
}

// List returns materials visible under filter. When ApprovedOnly is false and
// IncludeAll is not set, unapproved rows are limited to the viewer's own.
func (r *StudyMaterialRepository) List(ctx context.Context, filter models.StudyMaterialFilter) ([]models.StudyMaterial, int, error) {
	where := squirrel.And{}
	switch {
	case filter.ApprovedOnly:
		where = append(where, squirrel.Eq{"is_approved": true})
	case !filter.IncludeAll:
		where = append(where, squirrel.Or{squirrel.Eq{"is_approved": true}, squirrel.Eq{"uploader_id": filter.ViewerID}})
	}
	if filter.SubjectCode != "" {
		where = append(where, squirrel.Eq{"subject_code": filter.SubjectCode})
	}
	if filter.SubjectName != "" {
		where = append(where, ilike("subject_name", filter.SubjectName))
	}
	rows := []models.StudyMaterial{}
	total, err := pagedSelect{
		columns:  materialColumns,
		from:     "study_materials",
		where:    where,
		orderBy:  "created_at DESC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	}.run(ctx, r.db, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Approve marks a pending material approved. It returns sql.ErrNoRows when the
// material is missing or already approved.
func (r *StudyMaterialRepository) Approve(ctx context.Context, id, approverID string) (*models.StudyMaterial, error) {
	const query = `UPDATE study_materials SET is_approved = TRUE, approved_by = $2, approved_at = $3, updated_at = $3
	WHERE id = $1 AND is_approved = FALSE RETURNING ` + materialColumns
	var m models.StudyMaterial
	if err := r.db.GetContext(ctx, &m, query, id, approverID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("approve study material: %w", err)
	}
	return &m, nil
}

// Delete removes a material record.
func (r *StudyMaterialRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM study_materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete study material: %w", err)
	}
	return requireAffected(res, "delete study material")
}

// RecordDownload locks the material, runs check, stores a download row and
// increments download_count in one transaction.
func (r *StudyMaterialRepository) RecordDownload(ctx context.Context, materialID, userID string, check func(*models.StudyMaterial) error) (*models.StudyMaterial, error) {
	var m models.StudyMaterial
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRow(ctx, tx, &m, `SELECT `+materialColumns+` FROM study_materials WHERE id = $1 FOR UPDATE`, materialID); err != nil {
			return err
		}
		if err := check(&m); err != nil {
			return err
		}
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `INSERT INTO study_material_downloads (id, material_id, user_id, downloaded_at) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), materialID, userID, now); err != nil {
			return fmt.Errorf("record download: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE study_materials SET download_count = download_count + 1, updated_at = $2 WHERE id = $1`, materialID, now); err != nil {
			return fmt.Errorf("increment download count: %w", err)
		}
		m.DownloadCount++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Rate upserts the user's rating and recomputes the material aggregates from
// all ratings, rounded to one decimal.
func (r *StudyMaterialRepository) Rate(ctx context.Context, rating *models.StudyMaterialRating, check func(*models.StudyMaterial) error) (*models.StudyMaterial, error) {
	var m models.StudyMaterial
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRow(ctx, tx, &m, `SELECT `+materialColumns+` FROM study_materials WHERE id = $1 FOR UPDATE`, rating.MaterialID); err != nil {
			return err
		}
		if err := check(&m); err != nil {
			return err
		}

		if rating.ID == "" {
			rating.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		rating.CreatedAt = now
		rating.UpdatedAt = now
		const upsert = `INSERT INTO study_material_ratings (` + ratingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (material_id, user_id) DO UPDATE SET rating = EXCLUDED.rating, review = EXCLUDED.review, updated_at = EXCLUDED.updated_at
		RETURNING ` + ratingColumns
		if err := tx.GetContext(ctx, rating, upsert, rating.ID, rating.MaterialID, rating.UserID, rating.Rating, rating.Review, rating.CreatedAt, rating.UpdatedAt); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		var agg struct {
			Rating float64 `db:"rating"`
			Count  int     `db:"rating_count"`
		}
		const aggregate = `SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS rating, COUNT(*) AS rating_count FROM study_material_ratings WHERE material_id = $1`
		if err := tx.GetContext(ctx, &agg, aggregate, rating.MaterialID); err != nil {
			return fmt.Errorf("aggregate ratings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE study_materials SET rating = $2, rating_count = $3, updated_at = $4 WHERE id = $1`,
			rating.MaterialID, agg.Rating, agg.Count, now); err != nil {
			return fmt.Errorf("update material rating: %w", err)
		}
		m.Rating = agg.Rating
		m.RatingCount = agg.Count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListRatings returns the ratings of a material, newest first.
func (r *StudyMaterialRepository) ListRatings(ctx context.Context, materialID string, page, pageSize int) ([]models.StudyMaterialRating, int, error) {
	rows := []models.StudyMaterialRating{}
	total, err := pagedSelect{
		columns:  ratingColumns,
		from:     "study_material_ratings",
		where:    squirrel.And{squirrel.Eq{"material_id": materialID}},
		orderBy:  "updated_at DESC",
		page:     page,
		pageSize: pageSize,
	}.run(ctx, r.db, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Stats summarises the catalogue.
func (r *StudyMaterialRepository) Stats(ctx context.Context) (*models.StudyMaterialStats, error) {
	const query = `SELECT
		COUNT(*) AS total_materials,
		COUNT(*) FILTER (WHERE is_approved) AS approved_materials,
		COUNT(*) FILTER (WHERE NOT is_approved) AS pending_materials,
		COALESCE(SUM(download_count), 0) AS total_downloads,
		COALESCE(ROUND(AVG(rating) FILTER (WHERE rating_count > 0), 1), 0) AS average_rating
	FROM study_materials`
	var stats models.StudyMaterialStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("study material stats: %w", err)
	}
	return &stats, nil
}

// PopularSubjects ranks approved subjects by total downloads.
func (r *StudyMaterialRepository) PopularSubjects(ctx context.Context, limit int) ([]models.SubjectPopularity, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = 10
	}
	const query = `SELECT subject_code, COALESCE(MAX(subject_name), '') AS subject_name, COUNT(*) AS material_count,
		COALESCE(SUM(download_count), 0) AS total_downloads
	FROM study_materials
	WHERE is_approved AND subject_code IS NOT NULL
	GROUP BY subject_code
	ORDER BY total_downloads DESC, material_count DESC
	LIMIT $1`
	rows := []models.SubjectPopularity{}
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("popular subjects: %w", err)
	}
	return rows, nil
}
