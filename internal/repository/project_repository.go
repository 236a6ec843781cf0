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
	projectColumns = `id, owner_id, title, description, category, funding_goal, current_funding, funding_type, timeline, expected_outcomes, team_members, status, created_at, updated_at`
	supportColumns = `id, project_id, supporter_id, support_type, support_amount, support_description, status, created_at, updated_at`
)

// ProjectRepository persists projects and their supports.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a project.
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.TeamMembers == nil {
		p.TeamMembers = models.StringList{}
	}
	const query = `INSERT INTO projects (` + projectColumns + `) VALUES (:id, :owner_id, :title, :description, :category, :funding_goal, :current_funding, :funding_type, :timeline, :expected_outcomes, :team_members, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// FindByID returns a project by id.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	var p models.Project
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &p, nil
}

// List returns projects matching the filter, newest first.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": filter.Status})
	}
	if filter.Category != "" {
		where = append(where, squirrel.Eq{"category": filter.Category})
	}
	if filter.FundingType != "" {
		where = append(where, squirrel.Eq{"funding_type": filter.FundingType})
	}
	rows := []models.Project{}
	total, err := pagedSelect{
		columns:  projectColumns,
		from:     "projects",
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

// UpdateLocked loads the project under a row lock, applies mutate and saves it.
func (r *ProjectRepository) UpdateLocked(ctx context.Context, id string, mutate func(*models.Project) error) (*models.Project, error) {
	var out models.Project
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRow(ctx, tx, &out, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id); err != nil {
			return err
		}
		if err := mutate(&out); err != nil {
			return err
		}
		out.UpdatedAt = time.Now().UTC()
		const query = `UPDATE projects SET title = :title, description = :description, category = :category, funding_goal = :funding_goal,
		funding_type = :funding_type, timeline = :timeline, expected_outcomes = :expected_outcomes, team_members = :team_members,
		status = :status, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, query, &out); err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a project.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireAffected(res, "delete project")
}

// AddSupport records a support inside one transaction. The project row is
// locked and passed to check; a financial support increments current_funding
// and the project moves to funded once the goal is reached. Status never moves
// back from funded here.
func (r *ProjectRepository) AddSupport(ctx context.Context, support *models.ProjectSupport, check func(*models.Project) error) (*models.SupportResult, error) {
	var project models.Project
	result := &models.SupportResult{Support: support, Project: &project}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRow(ctx, tx, &project, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, support.ProjectID); err != nil {
			return err
		}
		if err := check(&project); err != nil {
			return err
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM project_supports WHERE project_id = $1 AND supporter_id = $2)`, support.ProjectID, support.SupporterID); err != nil {
			return fmt.Errorf("check project support: %w", err)
		}
		if exists {
			return ErrDuplicate
		}

		if support.ID == "" {
			support.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		support.CreatedAt = now
		support.UpdatedAt = now
		if support.Status == "" {
			support.Status = "active"
		}
		const insert = `INSERT INTO project_supports (` + supportColumns + `) VALUES (:id, :project_id, :supporter_id, :support_type, :support_amount, :support_description, :status, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insert, support); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("create project support: %w", err)
		}

		if !support.CountsTowardFunding() {
			return nil
		}
		project.CurrentFunding += support.SupportAmount
		if project.Funded() && project.Status != models.ProjectFunded {
			project.Status = models.ProjectFunded
			result.BecameFunded = true
		}
		project.UpdatedAt = now
		const update = `UPDATE projects SET current_funding = current_funding + $2, status = $3, updated_at = $4 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, project.ID, support.SupportAmount, project.Status, now); err != nil {
			return fmt.Errorf("update project funding: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListSupports returns the supports of a project with supporter names.
func (r *ProjectRepository) ListSupports(ctx context.Context, projectID string) ([]models.ProjectSupportView, error) {
	const query = `SELECT s.id, s.project_id, s.supporter_id, s.support_type, s.support_amount, s.support_description, s.status,
	s.created_at, s.updated_at, u.full_name AS supporter_name
	FROM project_supports s JOIN users u ON u.id = s.supporter_id
	WHERE s.project_id = $1 ORDER BY s.created_at DESC`
	rows := []models.ProjectSupportView{}
	if err := r.db.SelectContext(ctx, &rows, query, projectID); err != nil {
		return nil, fmt.Errorf("list project supports: %w", err)
	}
	return rows, nil
}

// ListBySupporter returns the supports given by supporterID.
func (r *ProjectRepository) ListBySupporter(ctx context.Context, supporterID string, page, pageSize int) ([]models.ProjectSupport, int, error) {
	rows := []models.ProjectSupport{}
	total, err := pagedSelect{
		columns:  supportColumns,
		from:     "project_supports",
		where:    squirrel.And{squirrel.Eq{"supporter_id": supporterID}},
		orderBy:  "created_at DESC",
		page:     page,
		pageSize: pageSize,
	}.run(ctx, r.db, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
