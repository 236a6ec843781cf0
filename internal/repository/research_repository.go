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
	collaborationColumns = `id, lead_researcher_id, title, description, research_area, objectives, methodology, expected_outcomes, timeline, max_collaborators, current_collaborators, budget, requirements, deliverables, status, created_at, updated_at`
	collabAppColumns     = `id, collaboration_id, applicant_id, application_letter, research_experience, relevant_skills, availability_hours, proposed_contribution, status, reviewed_by, reviewed_at, review_notes, created_at, updated_at`
	participantColumns   = `id, collaboration_id, user_id, role, status, joined_at`
	researchUpdateColumn = `id, collaboration_id, author_id, title, content, update_type, is_public, created_at, updated_at`

	lockCollaboration = `SELECT ` + collaborationColumns + ` FROM research_collaborations WHERE id = $1 FOR UPDATE`
)

// ResearchRepository persists research collaborations with their applications,
// participants and updates.
type ResearchRepository struct {
	db *sqlx.DB
}

// NewResearchRepository constructs the repository.
func NewResearchRepository(db *sqlx.DB) *ResearchRepository {
	return &ResearchRepository{db: db}
}

// Create inserts a collaboration.
func (r *ResearchRepository) Create(ctx context.Context, c *models.ResearchCollaboration) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	const query = `INSERT INTO research_collaborations (` + collaborationColumns + `) VALUES (:id, :lead_researcher_id, :title, :description, :research_area, :objectives, :methodology, :expected_outcomes, :timeline, :max_collaborators, :current_collaborators, :budget, :requirements, :deliverables, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create collaboration: %w", err)
	}
	return nil
}

// FindByID returns a collaboration by id.
func (r *ResearchRepository) FindByID(ctx context.Context, id string) (*models.ResearchCollaboration, error) {
	const query = `SELECT ` + collaborationColumns + ` FROM research_collaborations WHERE id = $1`
	var c models.ResearchCollaboration
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find collaboration: %w", err)
	}
	return &c, nil
}

// List returns collaborations matching the filter, newest first.
func (r *ResearchRepository) List(ctx context.Context, filter models.CollaborationFilter) ([]models.ResearchCollaboration, int, error) {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": filter.Status})
	}
	if filter.ResearchArea != "" {
		where = append(where, ilike("research_area", filter.ResearchArea))
	}
	rows := []models.ResearchCollaboration{}
	total, err := pagedSelect{
		columns:  collaborationColumns,
		from:     "research_collaborations",
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

// UpdateStatusLocked locks the collaboration, lets mutate decide the new
// status and stores it.
func (r *ResearchRepository) UpdateStatusLocked(ctx context.Context, id string, mutate func(*models.ResearchCollaboration) error) (*models.ResearchCollaboration, error) {
	var c models.ResearchCollaboration
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRow(ctx, tx, &c, lockCollaboration, id); err != nil {
			return err
		}
		if err := mutate(&c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `UPDATE research_collaborations SET status = $2, updated_at = $3 WHERE id = $1`, c.ID, c.Status, c.UpdatedAt); err != nil {
			return fmt.Errorf("update collaboration status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Apply stores an application after check accepts the locked collaboration.
// A second application by the same user yields ErrDuplicate.
func (r *ResearchRepository) Apply(ctx context.Context, app *models.CollaborationApplication, check func(*models.ResearchCollaboration) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var c models.ResearchCollaboration
		if err := lockRow(ctx, tx, &c, lockCollaboration, app.CollaborationID); err != nil {
			return err
		}
		if err := check(&c); err != nil {
			return err
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM collaboration_applications WHERE collaboration_id = $1 AND applicant_id = $2)`, app.CollaborationID, app.ApplicantID); err != nil {
			return fmt.Errorf("check collaboration application: %w", err)
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
		app.Status = models.CollabAppPending
		if app.RelevantSkills == nil {
			app.RelevantSkills = models.StringList{}
		}
		const insert = `INSERT INTO collaboration_applications (` + collabAppColumns + `) VALUES (:id, :collaboration_id, :applicant_id, :application_letter, :research_experience, :relevant_skills, :availability_hours, :proposed_contribution, :status, :reviewed_by, :reviewed_at, :review_notes, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insert, app); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("create collaboration application: %w", err)
		}
		return nil
	})
}

// ListApplications returns the applications of a collaboration.
func (r *ResearchRepository) ListApplications(ctx context.Context, collaborationID string, status models.CollaborationApplicationStatus, page, pageSize int) ([]models.CollaborationApplication, int, error) {
	where := squirrel.And{squirrel.Eq{"collaboration_id": collaborationID}}
	if status != "" {
		where = append(where, squirrel.Eq{"status": status})
	}
	rows := []models.CollaborationApplication{}
	total, err := pagedSelect{
		columns:  collabAppColumns,
		from:     "collaboration_applications",
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

// ReviewApplication locks the collaboration and then the application, and lets
// review validate and mutate the application against the locked parent. An
// accepted application becomes a participant and increments
// current_collaborators in the same transaction.
func (r *ResearchRepository) ReviewApplication(ctx context.Context, collaborationID, applicationID string, review func(*models.CollaborationApplication, *models.ResearchCollaboration) error) (*models.ReviewOutcome, error) {
	outcome := &models.ReviewOutcome{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var c models.ResearchCollaboration
		if err := lockRow(ctx, tx, &c, lockCollaboration, collaborationID); err != nil {
			return err
		}
		var app models.CollaborationApplication
		if err := lockRow(ctx, tx, &app, `SELECT `+collabAppColumns+` FROM collaboration_applications WHERE id = $1 AND collaboration_id = $2 FOR UPDATE`, applicationID, collaborationID); err != nil {
			return err
		}
		if err := review(&app, &c); err != nil {
			return err
		}

		app.UpdatedAt = time.Now().UTC()
		const update = `UPDATE collaboration_applications SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at,
		review_notes = :review_notes, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, update, &app); err != nil {
			return fmt.Errorf("review collaboration application: %w", err)
		}
		outcome.Application = &app

		if app.Status != models.CollabAppAccepted {
			return nil
		}
		participant := &models.CollaborationParticipant{
			CollaborationID: collaborationID,
			UserID:          app.ApplicantID,
			Role:            models.DefaultParticipantRole,
		}
		if err := insertParticipant(ctx, tx, participant); err != nil {
			return err
		}
		outcome.Participant = participant
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// AddParticipant inserts a participant after check accepts the locked
// collaboration.
func (r *ResearchRepository) AddParticipant(ctx context.Context, p *models.CollaborationParticipant, check func(*models.ResearchCollaboration) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var c models.ResearchCollaboration
		if err := lockRow(ctx, tx, &c, lockCollaboration, p.CollaborationID); err != nil {
			return err
		}
		if err := check(&c); err != nil {
			return err
		}
		return insertParticipant(ctx, tx, p)
	})
}

func insertParticipant(ctx context.Context, tx *sqlx.Tx, p *models.CollaborationParticipant) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM collaboration_participants WHERE collaboration_id = $1 AND user_id = $2)`, p.CollaborationID, p.UserID); err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if exists {
		return ErrDuplicate
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = models.DefaultParticipantRole
	}
	if p.Status == "" {
		p.Status = "active"
	}
	p.JoinedAt = time.Now().UTC()
	const insert = `INSERT INTO collaboration_participants (` + participantColumns + `) VALUES (:id, :collaboration_id, :user_id, :role, :status, :joined_at)`
	if _, err := tx.NamedExecContext(ctx, insert, p); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create participant: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE research_collaborations SET current_collaborators = current_collaborators + 1, updated_at = $2 WHERE id = $1`, p.CollaborationID, p.JoinedAt); err != nil {
		return fmt.Errorf("increment collaborators: %w", err)
	}
	return nil
}

// ListParticipants returns the members of a collaboration.
func (r *ResearchRepository) ListParticipants(ctx context.Context, collaborationID string) ([]models.CollaborationParticipant, error) {
	const query = `SELECT ` + participantColumns + ` FROM collaboration_participants WHERE collaboration_id = $1 ORDER BY joined_at ASC`
	rows := []models.CollaborationParticipant{}
	if err := r.db.SelectContext(ctx, &rows, query, collaborationID); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return rows, nil
}

// IsActiveParticipant reports whether userID is an active member.
func (r *ResearchRepository) IsActiveParticipant(ctx context.Context, collaborationID, userID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM collaboration_participants WHERE collaboration_id = $1 AND user_id = $2 AND status = 'active')`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, collaborationID, userID); err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return ok, nil
}

// CreateUpdate inserts a research update.
func (r *ResearchRepository) CreateUpdate(ctx context.Context, u *models.ResearchUpdate) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	const query = `INSERT INTO research_updates (` + researchUpdateColumn + `) VALUES (:id, :collaboration_id, :author_id, :title, :content, :update_type, :is_public, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		return fmt.Errorf("create research update: %w", err)
	}
	return nil
}

// ListUpdates returns the updates of a collaboration visible to viewerID.
// Private updates are returned to their author, or to everyone when
// includePrivate is set.
func (r *ResearchRepository) ListUpdates(ctx context.Context, collaborationID, viewerID string, includePrivate bool, page, pageSize int) ([]models.ResearchUpdate, int, error) {
	where := squirrel.And{squirrel.Eq{"collaboration_id": collaborationID}}
	if !includePrivate {
		where = append(where, squirrel.Or{squirrel.Eq{"is_public": true}, squirrel.Eq{"author_id": viewerID}})
	}
	rows := []models.ResearchUpdate{}
	total, err := pagedSelect{
		columns:  researchUpdateColumn,
		from:     "research_updates",
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

// Stats summarises collaborations.
func (r *ResearchRepository) Stats(ctx context.Context) (*models.ResearchStats, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM research_collaborations) AS total_collaborations,
		(SELECT COUNT(*) FROM research_collaborations WHERE status = 'open') AS open_collaborations,
		(SELECT COUNT(*) FROM research_collaborations WHERE status = 'in_progress') AS active_collaborations,
		(SELECT COUNT(*) FROM collaboration_participants WHERE status = 'active') AS total_participants,
		(SELECT COUNT(*) FROM collaboration_applications) AS total_applications`
	var stats models.ResearchStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("research stats: %w", err)
	}
	return &stats, nil
}

// PopularAreas ranks research areas by number of collaborations.
func (r *ResearchRepository) PopularAreas(ctx context.Context, limit int) ([]models.AreaPopularity, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = 10
	}
	const query = `SELECT research_area, COUNT(*) AS collaboration_count, COALESCE(SUM(current_collaborators), 0) AS participant_count
	FROM research_collaborations
	WHERE status <> 'cancelled'
	GROUP BY research_area
	ORDER BY collaboration_count DESC, participant_count DESC
	LIMIT $1`
	rows := []models.AreaPopularity{}
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("popular research areas: %w", err)
	}
	return rows, nil
}
