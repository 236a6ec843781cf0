package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, userID string) error
}

// ProfileService manages the caller's profile.
type ProfileService struct {
	repo      profileRepository
	users     userLookup
	validator *validator.Validate
	logger    *zap.Logger
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// NewProfileService constructs a profile service.
func NewProfileService(repo profileRepository, users userLookup, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, users: users, validator: validate, logger: logger}
}

// Get returns the caller's profile, or an empty one when none exists yet.
func (s *ProfileService) Get(ctx context.Context, caller Caller) (*models.Profile, error) {
	return s.load(ctx, caller.ID)
}

// GetByUserID returns the public profile of another user.
func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, internalError(err, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return s.load(ctx, userID)
}

func (s *ProfileService) load(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Profile{UserID: userID, Skills: models.StringList{}, Interests: models.StringList{}}, nil
		}
		return nil, internalError(err, "failed to load profile")
	}
	return profile, nil
}

// Create stores the caller's profile. A second create is a conflict.
func (s *ProfileService) Create(ctx context.Context, caller Caller, req models.ProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	if _, err := s.repo.FindByUserID(ctx, caller.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "profile already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to load profile")
	}

	profile := &models.Profile{UserID: caller.ID}
	req.Apply(profile)
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, storeError(err, "profile", "profile already exists", "failed to create profile")
	}
	return profile, nil
}

// Update patches the caller's existing profile.
func (s *ProfileService) Update(ctx context.Context, caller Caller, req models.ProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	profile, err := s.repo.FindByUserID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "profile", "", "failed to load profile")
	}
	req.Apply(profile)
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, storeError(err, "profile", "", "failed to update profile")
	}
	return profile, nil
}

// Delete removes the caller's profile.
func (s *ProfileService) Delete(ctx context.Context, caller Caller) error {
	if err := s.repo.Delete(ctx, caller.ID); err != nil {
		return storeError(err, "profile", "", "failed to delete profile")
	}
	return nil
}
