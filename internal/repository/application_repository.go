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

const applicationColumns = `id, user_id, company, position, status, job_description, application_date, notes, created_at, updated_at`

// ApplicationRepository persists job applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a job application.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	const query = `INSERT INTO applications (` + applicationColumns + `) VALUES (:id, :user_id, :company, :position, :status, :job_description, :application_date, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// FindByIDForUser returns an application only when it belongs to userID.
func (r *ApplicationRepository) FindByIDForUser(ctx context.Context, id, userID string) (*models.Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 AND user_id = $2`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

// ListByUser returns the user's applications, newest first.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.Application, int, error) {
	where := squirrel.And{squirrel.Eq{"user_id": userID}}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": *filter.Status})
	}
	apps := []models.Application{}
	total, err := pagedSelect{
		columns:  applicationColumns,
		from:     "applications",
		where:    where,
		orderBy:  "application_date DESC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	}.run(ctx, r.db, &apps)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// Update overwrites the mutable fields of an owned application.
func (r *ApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applications SET company = :company, position = :position, status = :status, job_description = :job_description,
	application_date = :application_date, notes = :notes, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, app)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return requireAffected(res, "update application")
}

// Delete removes an owned application.
func (r *ApplicationRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return requireAffected(res, "delete application")
}

// Stats counts the user's applications by status.
func (r *ApplicationRepository) Stats(ctx context.Context, userID string) (*models.ApplicationStats, error) {
	const query = `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'applied') AS applied,
		COUNT(*) FILTER (WHERE status = 'interviewing') AS interviewing,
		COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
		COUNT(*) FILTER (WHERE status = 'accepted') AS accepted
	FROM applications WHERE user_id = $1`
	var stats models.ApplicationStats
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("application stats: %w", err)
	}
	return &stats, nil
}
