package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/pkg/database"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
}

// UserService exposes account reads and self-service updates.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a user service.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Get returns an active user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, internalError(err, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

// List returns active users.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list users")
	}
	return users, pagination(filter.Page, filter.PageSize, total), nil
}

// UpdateMe changes the caller's own name or email.
func (s *UserService) UpdateMe(ctx context.Context, caller Caller, req models.UpdateMeRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid user payload")
	}
	user, err := s.Get(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.EqualFold(email, user.Email) {
			existing, err := s.repo.FindByEmail(ctx, email)
			if err == nil && existing.ID != user.ID {
				return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, internalError(err, "failed to check email")
			}
		}
		user.Email = email
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, storeError(err, "user", "", "failed to update user")
	}
	return user, nil
}

// Deactivate soft deletes an account. Only the account owner may do so.
func (s *UserService) Deactivate(ctx context.Context, caller Caller, id string) error {
	if err := Self(caller, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return storeError(err, "user", "", "failed to deactivate user")
	}
	s.logger.Info("user deactivated", zap.String("user_id", id))
	return nil
}
