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

const mentorshipColumns = `id, mentor_id, mentee_id, status, message, created_at, updated_at`

// MentorshipRepository persists mentorship requests.
type MentorshipRepository struct {
	db *sqlx.DB
}

// NewMentorshipRepository constructs the repository.
func NewMentorshipRepository(db *sqlx.DB) *MentorshipRepository {
	return &MentorshipRepository{db: db}
}

// Create inserts a pending request. The ordered (mentor, mentee) pair is unique.
func (r *MentorshipRepository) Create(ctx context.Context, m *models.Mentorship) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = models.MentorshipPending
	}
	const query = `INSERT INTO mentorships (` + mentorshipColumns + `) VALUES (:id, :mentor_id, :mentee_id, :status, :message, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create mentorship: %w", err)
	}
	return nil
}

// ExistsPair reports whether a request from mentee to mentor already exists.
func (r *MentorshipRepository) ExistsPair(ctx context.Context, mentorID, menteeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM mentorships WHERE mentor_id = $1 AND mentee_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, mentorID, menteeID); err != nil {
		return false, fmt.Errorf("check mentorship pair: %w", err)
	}
	return exists, nil
}

// FindByID returns a mentorship by id.
func (r *MentorshipRepository) FindByID(ctx context.Context, id string) (*models.Mentorship, error) {
	const query = `SELECT ` + mentorshipColumns + ` FROM mentorships WHERE id = $1`
	var m models.Mentorship
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find mentorship: %w", err)
	}
	return &m, nil
}

// ListForUser returns the rows where the user is mentor or mentee.
func (r *MentorshipRepository) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]models.Mentorship, int, error) {
	where := squirrel.And{squirrel.Or{squirrel.Eq{"mentor_id": userID}, squirrel.Eq{"mentee_id": userID}}}
	return r.list(ctx, where, page, pageSize)
}

// ListForMentor returns the mentor's rows in the given status.
func (r *MentorshipRepository) ListForMentor(ctx context.Context, mentorID string, status models.MentorshipStatus, page, pageSize int) ([]models.Mentorship, int, error) {
	where := squirrel.And{squirrel.Eq{"mentor_id": mentorID}, squirrel.Eq{"status": status}}
	return r.list(ctx, where, page, pageSize)
}

func (r *MentorshipRepository) list(ctx context.Context, where squirrel.And, page, pageSize int) ([]models.Mentorship, int, error) {
	rows := []models.Mentorship{}
	total, err := pagedSelect{
		columns:  mentorshipColumns,
		from:     "mentorships",
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

// Respond moves a pending request to status. It returns sql.ErrNoRows when the
// row is no longer pending.
func (r *MentorshipRepository) Respond(ctx context.Context, id string, status models.MentorshipStatus, message *string) (*models.Mentorship, error) {
	const query = `UPDATE mentorships SET status = $2, message = COALESCE($3, message), updated_at = $4
	WHERE id = $1 AND status = 'pending' RETURNING ` + mentorshipColumns
	var m models.Mentorship
	if err := r.db.GetContext(ctx, &m, query, id, status, message, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("respond mentorship: %w", err)
	}
	return &m, nil
}

// Delete removes a mentorship.
func (r *MentorshipRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mentorships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mentorship: %w", err)
	}
	return requireAffected(res, "delete mentorship")
}
