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
)

const expertiseColumns = `id, user_id, expertise_area, years_experience, current_position, company, skills, availability_status, created_at, updated_at`

// ExpertiseRepository persists alumni expertise records, one per user.
type ExpertiseRepository struct {
	db *sqlx.DB
}

// NewExpertiseRepository constructs the repository.
func NewExpertiseRepository(db *sqlx.DB) *ExpertiseRepository {
	return &ExpertiseRepository{db: db}
}

// Upsert creates the user's record or updates it in place.
func (r *ExpertiseRepository) Upsert(ctx context.Context, e *models.AlumniExpertise) (*models.AlumniExpertise, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Skills == nil {
		e.Skills = models.StringList{}
	}
	const query = `INSERT INTO alumni_expertise (` + expertiseColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (user_id) DO UPDATE SET
		expertise_area = EXCLUDED.expertise_area,
		years_experience = EXCLUDED.years_experience,
		current_position = EXCLUDED.current_position,
		company = EXCLUDED.company,
		skills = EXCLUDED.skills,
		availability_status = EXCLUDED.availability_status,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + expertiseColumns
	var out models.AlumniExpertise
	err := r.db.GetContext(ctx, &out, query,
		e.ID, e.UserID, e.ExpertiseArea, e.YearsExperience, e.CurrentPosition, e.Company, e.Skills, e.AvailabilityStatus, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert expertise: %w", err)
	}
	return &out, nil
}

// FindByID returns an expertise record.
func (r *ExpertiseRepository) FindByID(ctx context.Context, id string) (*models.AlumniExpertise, error) {
	const query = `SELECT ` + expertiseColumns + ` FROM alumni_expertise WHERE id = $1`
	var e models.AlumniExpertise
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find expertise: %w", err)
	}
	return &e, nil
}

// List returns expertise records matching the filter.
func (r *ExpertiseRepository) List(ctx context.Context, filter models.ExpertiseFilter) ([]models.AlumniExpertise, int, error) {
	where := squirrel.And{}
	if filter.Availability != "" {
		where = append(where, squirrel.Eq{"availability_status": filter.Availability})
	}
	if filter.ExpertiseArea != "" {
		where = append(where, ilike("expertise_area", filter.ExpertiseArea))
	}
	rows := []models.AlumniExpertise{}
	total, err := pagedSelect{
		columns:  expertiseColumns,
		from:     "alumni_expertise",
		where:    where,
		orderBy:  "years_experience DESC, created_at DESC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	}.run(ctx, r.db, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update saves the mutable fields of a record.
func (r *ExpertiseRepository) Update(ctx context.Context, e *models.AlumniExpertise) error {
	e.UpdatedAt = time.Now().UTC()
	const query = `UPDATE alumni_expertise SET expertise_area = :expertise_area, years_experience = :years_experience,
	current_position = :current_position, company = :company, skills = :skills, availability_status = :availability_status,
	updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, e)
	if err != nil {
		return fmt.Errorf("update expertise: %w", err)
	}
	return requireAffected(res, "update expertise")
}

// Delete removes a record.
func (r *ExpertiseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alumni_expertise WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expertise: %w", err)
	}
	return requireAffected(res, "delete expertise")
}
