package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nextstep-api/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, role, active, created_at, updated_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`
	return r.findOne(ctx, "find user by username", query, username)
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	return r.findOne(ctx, "find user by email", query, email)
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.findOne(ctx, "find user by id", query, id)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// List returns active users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	where := squirrel.And{squirrel.Eq{"active": true}}
	if filter.Role != nil {
		where = append(where, squirrel.Eq{"role": *filter.Role})
	}
	if filter.Search != "" {
		term := strings.TrimSpace(filter.Search)
		where = append(where, squirrel.Or{ilike("username", term), ilike("full_name", term), ilike("email", term)})
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"username":   true,
		"full_name":  true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	users := []models.User{}
	total, err := pagedSelect{
		columns:  userColumns,
		from:     "users",
		where:    where,
		orderBy:  sortBy + " " + sortOrder,
		page:     filter.Page,
		pageSize: filter.PageSize,
	}.run(ctx, r.db, &users)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Create inserts a new user. Unique violations on username or email are
// returned unwrapped enough for database.IsUniqueViolation to detect.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, username, email, password_hash, full_name, role, active, created_at, updated_at) VALUES (:id, :username, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update updates the mutable account fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET full_name = :full_name, email = :email, updated_at = :updated_at WHERE id = :id AND active = TRUE`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res, "update user")
}

// Deactivate performs a soft delete by marking the user inactive.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1 AND active = TRUE`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return requireAffected(res, "deactivate user")
}
