package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nextstep-api/internal/models"
)

const profileColumns = `user_id, bio, skills, interests, location, phone, linkedin_url, github_url, portfolio_url, graduation_year, company, created_at, updated_at`

// ProfileRepository persists user profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID returns the profile of a user.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// Create inserts a profile keyed by user id.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.Skills == nil {
		profile.Skills = models.StringList{}
	}
	if profile.Interests == nil {
		profile.Interests = models.StringList{}
	}
	const query = `INSERT INTO profiles (` + profileColumns + `) VALUES (:user_id, :bio, :skills, :interests, :location, :phone, :linkedin_url, :github_url, :portfolio_url, :graduation_year, :company, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Update overwrites the mutable profile fields.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE profiles SET bio = :bio, skills = :skills, interests = :interests, location = :location, phone = :phone,
	linkedin_url = :linkedin_url, github_url = :github_url, portfolio_url = :portfolio_url, graduation_year = :graduation_year,
	company = :company, updated_at = :updated_at WHERE user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireAffected(res, "update profile")
}

// Delete removes the profile of a user.
func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireAffected(res, "delete profile")
}
