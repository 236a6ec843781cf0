package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
)

type expertiseRepository interface {
	Upsert(ctx context.Context, e *models.AlumniExpertise) (*models.AlumniExpertise, error)
	FindByID(ctx context.Context, id string) (*models.AlumniExpertise, error)
	List(ctx context.Context, filter models.ExpertiseFilter) ([]models.AlumniExpertise, int, error)
	Update(ctx context.Context, e *models.AlumniExpertise) error
	Delete(ctx context.Context, id string) error
}

// ExpertiseService maintains the alumni expertise directory.
type ExpertiseService struct {
	repo      expertiseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExpertiseService constructs the service.
func NewExpertiseService(repo expertiseRepository, validate *validator.Validate, logger *zap.Logger) *ExpertiseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpertiseService{repo: repo, validator: validate, logger: logger}
}

// Upsert creates or replaces the caller's expertise record. Alumni only.
func (s *ExpertiseService) Upsert(ctx context.Context, caller Caller, req models.ExpertiseRequest) (*models.AlumniExpertise, error) {
	if err := RoleEquals(caller, models.RoleAlumni); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid expertise payload")
	}
	e := &models.AlumniExpertise{UserID: caller.ID, AvailabilityStatus: models.AvailabilityAvailable, Skills: models.StringList{}}
	applyExpertise(e, req)
	saved, err := s.repo.Upsert(ctx, e)
	if err != nil {
		return nil, internalError(err, "failed to save expertise")
	}
	return saved, nil
}

// List returns the directory, available alumni by default.
func (s *ExpertiseService) List(ctx context.Context, filter models.ExpertiseFilter) ([]models.AlumniExpertise, *models.Pagination, error) {
	if filter.Availability == "" {
		filter.Availability = models.AvailabilityAvailable
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list expertise")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an expertise record.
func (s *ExpertiseService) Get(ctx context.Context, id string) (*models.AlumniExpertise, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "expertise", "", "failed to load expertise")
	}
	return e, nil
}

// Update replaces an expertise record. Owner only.
func (s *ExpertiseService) Update(ctx context.Context, caller Caller, id string, req models.ExpertiseRequest) (*models.AlumniExpertise, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid expertise payload")
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Self(caller, e.UserID); err != nil {
		return nil, err
	}
	applyExpertise(e, req)
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, storeError(err, "expertise", "", "failed to update expertise")
	}
	return e, nil
}

// Delete removes an expertise record. Owner only.
func (s *ExpertiseService) Delete(ctx context.Context, caller Caller, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Self(caller, e.UserID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "expertise", "", "failed to delete expertise")
	}
	return nil
}

func applyExpertise(e *models.AlumniExpertise, req models.ExpertiseRequest) {
	e.ExpertiseArea = strings.TrimSpace(req.ExpertiseArea)
	e.YearsExperience = req.YearsExperience
	e.CurrentPosition = req.CurrentPosition
	e.Company = req.Company
	if req.Skills != nil {
		e.Skills = models.StringList(req.Skills)
	}
	if req.AvailabilityStatus != "" {
		e.AvailabilityStatus = req.AvailabilityStatus
	}
}
