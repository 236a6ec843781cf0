package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/pkg/export"
)

type projectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	UpdateLocked(ctx context.Context, id string, mutate func(*models.Project) error) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	AddSupport(ctx context.Context, support *models.ProjectSupport, check func(*models.Project) error) (*models.SupportResult, error)
	ListSupports(ctx context.Context, projectID string) ([]models.ProjectSupportView, error)
	ListBySupporter(ctx context.Context, supporterID string, page, pageSize int) ([]models.ProjectSupport, int, error)
}

// ProjectService manages student projects and the alumni support they receive.
type ProjectService struct {
	repo      projectRepository
	cache     *CacheService
	notifier  Notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs the service. cache may be nil.
func NewProjectService(repo projectRepository, cache *CacheService, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, cache: cache, notifier: notifier, metrics: metrics, validator: validate, logger: logger}
}

// Create registers a project for the calling student.
func (s *ProjectService) Create(ctx context.Context, caller Caller, req models.CreateProjectRequest) (*models.Project, error) {
	if err := RoleEquals(caller, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid project payload")
	}
	p := &models.Project{
		OwnerID:          caller.ID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Category:         req.Category,
		FundingGoal:      req.FundingGoal,
		FundingType:      req.FundingType,
		Timeline:         req.Timeline,
		ExpectedOutcomes: req.ExpectedOutcomes,
		TeamMembers:      models.StringList(req.TeamMembers),
		Status:           models.ProjectPending,
	}
	if p.TeamMembers == nil {
		p.TeamMembers = models.StringList{}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, internalError(err, "failed to create project")
	}
	s.metrics.RecordTransition("project", string(p.Status))
	return p, nil
}

// List returns projects, pending ones by default, newest first.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	if filter.Status == "" {
		filter.Status = models.ProjectPending
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list projects")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "project", "", "failed to load project")
	}
	return p, nil
}

// Update patches a project. Owner only. funded is reached through support or
// by lowering the goal, never set directly.
func (s *ProjectService) Update(ctx context.Context, caller Caller, id string, req models.UpdateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid project payload")
	}
	var previous models.ProjectStatus
	p, err := s.repo.UpdateLocked(ctx, id, func(p *models.Project) error {
		if err := Self(caller, p.OwnerID); err != nil {
			return err
		}
		previous = p.Status
		if req.Status != nil {
			if err := checkProjectTransition(p.Status, *req.Status); err != nil {
				return err
			}
		}
		applyProjectPatch(p, req)
		if p.Status.AcceptsSupport() && p.FundingGoal > 0 && p.Funded() {
			p.Status = models.ProjectFunded
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "project", "", "failed to update project")
	}
	s.cache.Forget(ctx, cacheKeyFundingReportPfx+id)
	if p.Status != previous {
		s.metrics.RecordTransition("project", string(p.Status))
	}
	return p, nil
}

func checkProjectTransition(from, to models.ProjectStatus) error {
	if from == to {
		return nil
	}
	switch {
	case from.Terminal():
		return invalidState("project is " + string(from) + " and can no longer change status")
	case to == models.ProjectFunded:
		return invalidState("funded status is set automatically when the funding goal is reached")
	case to == models.ProjectPending:
		return invalidState("project cannot return to pending")
	}
	return nil
}

func applyProjectPatch(p *models.Project, req models.UpdateProjectRequest) {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.FundingGoal != nil {
		p.FundingGoal = *req.FundingGoal
	}
	if req.FundingType != nil {
		p.FundingType = *req.FundingType
	}
	if req.Timeline != nil {
		p.Timeline = req.Timeline
	}
	if req.ExpectedOutcomes != nil {
		p.ExpectedOutcomes = *req.ExpectedOutcomes
	}
	if req.TeamMembers != nil {
		p.TeamMembers = models.StringList(*req.TeamMembers)
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
}

// Delete removes a project. Owner only.
func (s *ProjectService) Delete(ctx context.Context, caller Caller, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Self(caller, p.OwnerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "project", "", "failed to delete project")
	}
	s.cache.Forget(ctx, cacheKeyFundingReportPfx+id)
	return nil
}

// Support records the calling alumnus' contribution to a project.
func (s *ProjectService) Support(ctx context.Context, caller Caller, id string, req models.SupportProjectRequest) (*models.SupportResult, error) {
	if err := RoleEquals(caller, models.RoleAlumni); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid support payload")
	}
	support := &models.ProjectSupport{
		ProjectID:          id,
		SupporterID:        caller.ID,
		SupportType:        req.SupportType,
		SupportAmount:      req.SupportAmount,
		SupportDescription: req.SupportDescription,
	}
	result, err := s.repo.AddSupport(ctx, support, func(p *models.Project) error {
		if !p.Status.AcceptsSupport() {
			return invalidState("project is not accepting support")
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "project", "you have already supported this project", "failed to record support")
	}
	s.cache.Forget(ctx, cacheKeyFundingReportPfx+id)

	project := result.Project
	s.notify(ctx, project, ActionSupported, map[string]interface{}{
		"support_type":   string(support.SupportType),
		"support_amount": support.SupportAmount,
	})
	if result.BecameFunded {
		s.metrics.RecordTransition("project", string(models.ProjectFunded))
		s.notify(ctx, project, ActionFunded, map[string]interface{}{"current_funding": project.CurrentFunding})
	}
	return result, nil
}

// ListSupports returns the supporters of a project.
func (s *ProjectService) ListSupports(ctx context.Context, id string) ([]models.ProjectSupportView, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.repo.ListSupports(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to list supports")
	}
	return items, nil
}

// MySupports returns the contributions made by the calling alumnus.
func (s *ProjectService) MySupports(ctx context.Context, caller Caller, page, pageSize int) ([]models.ProjectSupport, *models.Pagination, error) {
	if err := RoleEquals(caller, models.RoleAlumni); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListBySupporter(ctx, caller.ID, page, pageSize)
	if err != nil {
		return nil, nil, internalError(err, "failed to list supports")
	}
	return items, pagination(page, pageSize, total), nil
}

// FundingReport renders the supporters and funding progress of a project. Owner only.
func (s *ProjectService) FundingReport(ctx context.Context, caller Caller, id, rawFormat string) (*models.ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, validationError(err, err.Error())
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Self(caller, p.OwnerID); err != nil {
		return nil, err
	}

	data, err := cached(ctx, s.cache, cacheKeyFundingReportPfx+id, func(ctx context.Context) (export.Dataset, error) {
		supports, err := s.repo.ListSupports(ctx, id)
		if err != nil {
			return export.Dataset{}, err
		}
		return fundingDataset(p, supports), nil
	})
	if err != nil {
		return nil, internalError(err, "failed to load supports")
	}

	body, err := export.Render(format, data)
	if err != nil {
		return nil, internalError(err, "failed to render report")
	}
	return &models.ExportFile{
		Filename:    fmt.Sprintf("project-%s-funding.%s", p.ID, format),
		ContentType: format.ContentType(),
		Data:        body,
	}, nil
}

func fundingDataset(p *models.Project, supports []models.ProjectSupportView) export.Dataset {
	progress := 0.0
	if p.FundingGoal > 0 {
		progress = p.CurrentFunding / p.FundingGoal * 100
	}
	data := export.Dataset{
		Title: "Funding report: " + p.Title,
		Summary: []string{
			fmt.Sprintf("Status: %s", p.Status),
			fmt.Sprintf("Goal: %.2f", p.FundingGoal),
			fmt.Sprintf("Raised: %.2f (%.1f%%)", p.CurrentFunding, progress),
			fmt.Sprintf("Supporters: %d", len(supports)),
		},
		Headers: []string{"supporter", "type", "amount", "description", "date"},
		Rows:    make([]map[string]string, 0, len(supports)),
	}
	for _, sp := range supports {
		data.Rows = append(data.Rows, map[string]string{
			"supporter":   sp.SupporterName,
			"type":        string(sp.SupportType),
			"amount":      fmt.Sprintf("%.2f", sp.SupportAmount),
			"description": sp.SupportDescription,
			"date":        sp.CreatedAt.Format("2006-01-02"),
		})
	}
	return data
}

func (s *ProjectService) notify(ctx context.Context, p *models.Project, action string, data map[string]interface{}) {
	if s.notifier == nil || p == nil {
		return
	}
	payload := map[string]interface{}{"project_id": p.ID, "project_title": p.Title}
	for k, v := range data {
		payload[k] = v
	}
	s.notifier.Notify(ctx, ProjectNotice(p.OwnerID, p.Title, action, payload))
}
