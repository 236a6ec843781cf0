package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
)

type applicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	FindByIDForUser(ctx context.Context, id, userID string) (*models.Application, error)
	ListByUser(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.Application, int, error)
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, id, userID string) error
	Stats(ctx context.Context, userID string) (*models.ApplicationStats, error)
}

// ApplicationService tracks the caller's job applications. Rows of other users
// are reported as missing.
type ApplicationService struct {
	repo      applicationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(repo applicationRepository, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, validator: validate, logger: logger}
}

// Create records a new application for the caller.
func (s *ApplicationService) Create(ctx context.Context, caller Caller, req models.CreateApplicationRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid application payload")
	}
	app := &models.Application{
		UserID:          caller.ID,
		Company:         strings.TrimSpace(req.Company),
		Position:        strings.TrimSpace(req.Position),
		Status:          req.Status,
		JobDescription:  req.JobDescription,
		ApplicationDate: time.Now().UTC(),
		Notes:           req.Notes,
	}
	if app.Status == "" {
		app.Status = models.ApplicationApplied
	}
	if req.ApplicationDate != nil {
		app.ApplicationDate = req.ApplicationDate.UTC()
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, internalError(err, "failed to create application")
	}
	return app, nil
}

// Get returns one of the caller's applications.
func (s *ApplicationService) Get(ctx context.Context, caller Caller, id string) (*models.Application, error) {
	app, err := s.repo.FindByIDForUser(ctx, id, caller.ID)
	if err != nil {
		return nil, storeError(err, "application", "", "failed to load application")
	}
	return app, nil
}

// List returns the caller's applications.
func (s *ApplicationService) List(ctx context.Context, caller Caller, filter models.ApplicationFilter) ([]models.Application, *models.Pagination, error) {
	apps, total, err := s.repo.ListByUser(ctx, caller.ID, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list applications")
	}
	return apps, pagination(filter.Page, filter.PageSize, total), nil
}

// Update patches one of the caller's applications. Any status may follow any other.
func (s *ApplicationService) Update(ctx context.Context, caller Caller, id string, req models.UpdateApplicationRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid application payload")
	}
	app, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if req.Company != nil {
		app.Company = strings.TrimSpace(*req.Company)
	}
	if req.Position != nil {
		app.Position = strings.TrimSpace(*req.Position)
	}
	if req.Status != nil {
		app.Status = *req.Status
	}
	if req.JobDescription != nil {
		app.JobDescription = req.JobDescription
	}
	if req.ApplicationDate != nil {
		app.ApplicationDate = req.ApplicationDate.UTC()
	}
	if req.Notes != nil {
		app.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, app); err != nil {
		return nil, storeError(err, "application", "", "failed to update application")
	}
	return app, nil
}

// Delete removes one of the caller's applications.
func (s *ApplicationService) Delete(ctx context.Context, caller Caller, id string) error {
	if err := s.repo.Delete(ctx, id, caller.ID); err != nil {
		return storeError(err, "application", "", "failed to delete application")
	}
	return nil
}

// Stats counts the caller's applications by status.
func (s *ApplicationService) Stats(ctx context.Context, caller Caller) (*models.ApplicationStats, error) {
	stats, err := s.repo.Stats(ctx, caller.ID)
	if err != nil {
		return nil, internalError(err, "failed to load application stats")
	}
	return stats, nil
}
