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
	scholarshipColumns            = `id, creator_id, title, description, amount, category, eligibility_criteria, application_deadline, max_applications, current_applications, status, created_at, updated_at`
	scholarshipApplicationColumns = `id, scholarship_id, applicant_id, personal_statement, academic_achievements, financial_need_statement, status, reviewed_by, reviewed_at, review_notes, created_at, updated_at`
)

// ScholarshipRepository persists scholarships and their applications.
type ScholarshipRepository struct {
	db *sqlx.DB
}

// NewScholarshipRepository constructs the repository.
func NewScholarshipRepository(db *sqlx.DB) *ScholarshipRepository {
	return &ScholarshipRepository{db: db}
}

// Create inserts a scholarship.
func (r *ScholarshipRepository) Create(ctx context.Context, s *models.Scholarship) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	const query = `INSERT INTO scholarships (` + scholarshipColumns + `) VALUES (:id, :creator_id, :title, :description, :amount, :category, :eligibility_criteria, :application_deadline, :max_applications, :current_applications, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create scholarship: %w", err)
	}
	return nil
}

// FindByID returns a scholarship by id.
func (r *ScholarshipRepository) FindByID(ctx context.Context, id string) (*models.Scholarship, error) {
	const query = `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE id = $1`
	var s models.Scholarship
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find scholarship: %w", err)
	}
	return &s, nil
}

// List returns scholarships matching the filter, soonest deadline first.
func (r *ScholarshipRepository) List(ctx context.Context, filter models.ScholarshipFilter) ([]models.Scholarship, int, error) {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": filter.Status})
	}
	if filter.Category != "" {
		where = append(where, squirrel.Eq{"category": filter.Category})
	}
	rows := []models.Scholarship{}
	total, err := pagedSelect{
		columns:  scholarshipColumns,
		from:     "scholarships",
		where:    where,
		orderBy:  "application_deadline ASC",
		page:     filter.Page,
		pageSize: filter.PageSize,
	}.run(ctx, r.db, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateLocked loads the scholarship under a row lock, lets mutate change it
// and persists the result in the same transaction.
func (r *ScholarshipRepository) UpdateLocked(ctx context.Context, id string, mutate func(*models.Scholarship) error) (*models.Scholarship, error) {
	var out models.Scholarship
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRow(ctx, tx, &out, `SELECT `+scholarshipColumns+` FROM scholarships WHERE id = $1 FOR UPDATE`, id); err != nil {
			return err
		}
		if err := mutate(&out); err != nil {
			return err
		}
		out.UpdatedAt = time.Now().UTC()
		const query = `UPDATE scholarships SET title = :title, description = :description, amount = :amount, category = :category,
		eligibility_criteria = :eligibility_criteria, application_deadline = :application_deadline, max_applications = :max_applications,
		status = :status, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, query, &out); err != nil {
			return fmt.Errorf("update scholarship: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a scholarship and, by cascade, its applications.
func (r *ScholarshipRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scholarships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scholarship: %w", err)
	}
	return requireAffected(res, "delete scholarship")
}

// Apply records an application inside one transaction: the scholarship row is
// locked, check runs against the locked row, duplicates yield ErrDuplicate and
// the application counter is incremented with the insert.
func (r *ScholarshipRepository) Apply(ctx context.Context, app *models.ScholarshipApplication, check func(*models.Scholarship) error) (*models.Scholarship, error) {
	var scholarship models.Scholarship
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRow(ctx, tx, &scholarship, `SELECT `+scholarshipColumns+` FROM scholarships WHERE id = $1 FOR UPDATE`, app.ScholarshipID); err != nil {
			return err
		}
		if err := check(&scholarship); err != nil {
			return err
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM scholarship_applications WHERE scholarship_id = $1 AND applicant_id = $2)`, app.ScholarshipID, app.ApplicantID); err != nil {
			return fmt.Errorf("check scholarship application: %w", err)
		}
		if exists {
			return ErrDuplicate
		}

		if app.ID == "" {
			app.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		app.CreatedAt = now
		app.UpdatedAt = now
		app.Status = models.ScholarshipAppPending
		const insert = `INSERT INTO scholarship_applications (` + scholarshipApplicationColumns + `) VALUES (:id, :scholarship_id, :applicant_id, :personal_statement, :academic_achievements, :financial_need_statement, :status, :reviewed_by, :reviewed_at, :review_notes, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insert, app); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("create scholarship application: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE scholarships SET current_applications = current_applications + 1, updated_at = $2 WHERE id = $1`, scholarship.ID, now); err != nil {
			return fmt.Errorf("increment scholarship applications: %w", err)
		}
		scholarship.CurrentApplications++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &scholarship, nil
}

// ListApplications returns the applications of a scholarship.
func (r *ScholarshipRepository) ListApplications(ctx context.Context, scholarshipID string, page, pageSize int) ([]models.ScholarshipApplication, int, error) {
	return r.listApplications(ctx, squirrel.And{squirrel.Eq{"scholarship_id": scholarshipID}}, page, pageSize)
}

// ListByApplicant returns every application submitted by applicantID.
func (r *ScholarshipRepository) ListByApplicant(ctx context.Context, applicantID string, page, pageSize int) ([]models.ScholarshipApplication, int, error) {
	return r.listApplications(ctx, squirrel.And{squirrel.Eq{"applicant_id": applicantID}}, page, pageSize)
}

func (r *ScholarshipRepository) listApplications(ctx context.Context, where squirrel.And, page, pageSize int) ([]models.ScholarshipApplication, int, error) {
	rows := []models.ScholarshipApplication{}
	total, err := pagedSelect{
		columns:  scholarshipApplicationColumns,
		from:     "scholarship_applications",
		where:    where,
		orderBy:  "created_at DESC",
		page:     page,
		pageSize: pageSize,
	}.run(ctx, r.db, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AllApplications returns the full roster of a scholarship for exports.
func (r *ScholarshipRepository) AllApplications(ctx context.Context, scholarshipID string) ([]models.ScholarshipApplication, error) {
	const query = `SELECT ` + scholarshipApplicationColumns + ` FROM scholarship_applications WHERE scholarship_id = $1 ORDER BY created_at ASC`
	rows := []models.ScholarshipApplication{}
	if err := r.db.SelectContext(ctx, &rows, query, scholarshipID); err != nil {
		return nil, fmt.Errorf("list scholarship roster: %w", err)
	}
	return rows, nil
}

// ReviewApplication locks an application of scholarshipID, lets review mutate
// it and stores the decision.
func (r *ScholarshipRepository) ReviewApplication(ctx context.Context, scholarshipID, applicationID string, review func(*models.ScholarshipApplication) error) (*models.ScholarshipApplication, error) {
	var app models.ScholarshipApplication
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRow(ctx, tx, &app, `SELECT `+scholarshipApplicationColumns+` FROM scholarship_applications WHERE id = $1 AND scholarship_id = $2 FOR UPDATE`, applicationID, scholarshipID); err != nil {
			return err
		}
		if err := review(&app); err != nil {
			return err
		}
		app.UpdatedAt = time.Now().UTC()
		const query = `UPDATE scholarship_applications SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at,
		review_notes = :review_notes, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, query, &app); err != nil {
			return fmt.Errorf("review scholarship application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}
