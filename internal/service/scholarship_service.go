package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
	"github.com/noah-isme/nextstep-api/pkg/export"
)

const defaultMaxScholarshipApplications = 100

type scholarshipRepository interface {
	Create(ctx context.Context, s *models.Scholarship) error
	FindByID(ctx context.Context, id string) (*models.Scholarship, error)
	List(ctx context.Context, filter models.ScholarshipFilter) ([]models.Scholarship, int, error)
	UpdateLocked(ctx context.Context, id string, mutate func(*models.Scholarship) error) (*models.Scholarship, error)
	Delete(ctx context.Context, id string) error
	Apply(ctx context.Context, app *models.ScholarshipApplication, check func(*models.Scholarship) error) (*models.Scholarship, error)
	ListApplications(ctx context.Context, scholarshipID string, page, pageSize int) ([]models.ScholarshipApplication, int, error)
	ListByApplicant(ctx context.Context, applicantID string, page, pageSize int) ([]models.ScholarshipApplication, int, error)
	AllApplications(ctx context.Context, scholarshipID string) ([]models.ScholarshipApplication, error)
	ReviewApplication(ctx context.Context, scholarshipID, applicationID string, review func(*models.ScholarshipApplication) error) (*models.ScholarshipApplication, error)
}

// ScholarshipService manages alumni-funded scholarships and student applications.
type ScholarshipService struct {
	repo      scholarshipRepository
	notifier  Notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScholarshipService constructs the service.
func NewScholarshipService(repo scholarshipRepository, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScholarshipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScholarshipService{repo: repo, notifier: notifier, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Create publishes a scholarship. Alumni only.
func (s *ScholarshipService) Create(ctx context.Context, caller Caller, req models.CreateScholarshipRequest) (*models.Scholarship, error) {
	if err := RoleEquals(caller, models.RoleAlumni); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid scholarship payload")
	}
	sch := &models.Scholarship{
		CreatorID:           caller.ID,
		Title:               strings.TrimSpace(req.Title),
		Description:         req.Description,
		Amount:              req.Amount,
		Category:            req.Category,
		EligibilityCriteria: req.EligibilityCriteria,
		ApplicationDeadline: req.ApplicationDeadline.UTC(),
		MaxApplications:     defaultMaxScholarshipApplications,
		Status:              models.ScholarshipActive,
	}
	if req.MaxApplications != nil {
		sch.MaxApplications = *req.MaxApplications
	}
	if req.Status != nil {
		sch.Status = *req.Status
	}
	if err := s.repo.Create(ctx, sch); err != nil {
		return nil, internalError(err, "failed to create scholarship")
	}
	s.metrics.RecordTransition("scholarship", string(sch.Status))
	s.notify(ctx, caller.ID, sch, ActionCreated, nil)
	return sch, nil
}

// List returns scholarships, active ones by default.
func (s *ScholarshipService) List(ctx context.Context, filter models.ScholarshipFilter) ([]models.Scholarship, *models.Pagination, error) {
	if filter.Status == "" {
		filter.Status = models.ScholarshipActive
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list scholarships")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a scholarship by id.
func (s *ScholarshipService) Get(ctx context.Context, id string) (*models.Scholarship, error) {
	sch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "scholarship", "", "failed to load scholarship")
	}
	return sch, nil
}

// Update patches a scholarship. Creator only.
func (s *ScholarshipService) Update(ctx context.Context, caller Caller, id string, req models.UpdateScholarshipRequest) (*models.Scholarship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid scholarship payload")
	}
	var previous models.ScholarshipStatus
	sch, err := s.repo.UpdateLocked(ctx, id, func(sch *models.Scholarship) error {
		if err := Self(caller, sch.CreatorID); err != nil {
			return err
		}
		previous = sch.Status
		if req.MaxApplications != nil && *req.MaxApplications < sch.CurrentApplications {
			return invalidState(fmt.Sprintf("max_applications cannot be lower than the %d applications already received", sch.CurrentApplications))
		}
		applyScholarshipPatch(sch, req)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "scholarship", "", "failed to update scholarship")
	}
	if sch.Status != previous {
		s.metrics.RecordTransition("scholarship", string(sch.Status))
	}
	return sch, nil
}

func applyScholarshipPatch(sch *models.Scholarship, req models.UpdateScholarshipRequest) {
	if req.Title != nil {
		sch.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		sch.Description = *req.Description
	}
	if req.Amount != nil {
		sch.Amount = *req.Amount
	}
	if req.Category != nil {
		sch.Category = *req.Category
	}
	if req.EligibilityCriteria != nil {
		sch.EligibilityCriteria = req.EligibilityCriteria
	}
	if req.ApplicationDeadline != nil {
		sch.ApplicationDeadline = req.ApplicationDeadline.UTC()
	}
	if req.MaxApplications != nil {
		sch.MaxApplications = *req.MaxApplications
	}
	if req.Status != nil {
		sch.Status = *req.Status
	}
}

// Delete removes a scholarship. Creator only.
func (s *ScholarshipService) Delete(ctx context.Context, caller Caller, id string) error {
	sch, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Self(caller, sch.CreatorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "scholarship", "", "failed to delete scholarship")
	}
	return nil
}

// Apply submits the caller's application. Students only. Status, deadline and
// capacity are checked against the locked scholarship row.
func (s *ScholarshipService) Apply(ctx context.Context, caller Caller, id string, req models.ApplyScholarshipRequest) (*models.ScholarshipApplication, error) {
	if err := RoleEquals(caller, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid application payload")
	}
	app := &models.ScholarshipApplication{
		ScholarshipID:          id,
		ApplicantID:            caller.ID,
		PersonalStatement:      req.PersonalStatement,
		AcademicAchievements:   req.AcademicAchievements,
		FinancialNeedStatement: req.FinancialNeedStatement,
	}
	now := s.now().UTC()
	sch, err := s.repo.Apply(ctx, app, func(sch *models.Scholarship) error {
		switch {
		case sch.Status != models.ScholarshipActive:
			return invalidState("scholarship is not accepting applications")
		case now.After(sch.ApplicationDeadline):
			return invalidState("application deadline has passed")
		case sch.CurrentApplications >= sch.MaxApplications:
			return appErrors.Clone(appErrors.ErrConflict, "scholarship has reached its maximum number of applications")
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "scholarship", "you have already applied to this scholarship", "failed to submit application")
	}
	s.metrics.RecordTransition("scholarship_application", string(app.Status))
	s.notify(ctx, sch.CreatorID, sch, ActionApplied, map[string]interface{}{"application_id": app.ID})
	return app, nil
}

// ListApplications returns the applications of a scholarship. Creator only.
func (s *ScholarshipService) ListApplications(ctx context.Context, caller Caller, id string, page, pageSize int) ([]models.ScholarshipApplication, *models.Pagination, error) {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListApplications(ctx, id, page, pageSize)
	if err != nil {
		return nil, nil, internalError(err, "failed to list applications")
	}
	return items, pagination(page, pageSize, total), nil
}

// MyApplications returns the caller's scholarship applications.
func (s *ScholarshipService) MyApplications(ctx context.Context, caller Caller, page, pageSize int) ([]models.ScholarshipApplication, *models.Pagination, error) {
	items, total, err := s.repo.ListByApplicant(ctx, caller.ID, page, pageSize)
	if err != nil {
		return nil, nil, internalError(err, "failed to list applications")
	}
	return items, pagination(page, pageSize, total), nil
}

// Review records the creator's decision on an application.
func (s *ScholarshipService) Review(ctx context.Context, caller Caller, id, applicationID string, req models.ReviewScholarshipApplicationRequest) (*models.ScholarshipApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid review payload")
	}
	sch, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	reviewedAt := s.now().UTC()
	app, err := s.repo.ReviewApplication(ctx, id, applicationID, func(app *models.ScholarshipApplication) error {
		if app.Status.Final() {
			return invalidState("application has already been " + string(app.Status))
		}
		app.Status = req.Status
		app.ReviewedBy = &caller.ID
		app.ReviewedAt = &reviewedAt
		app.ReviewNotes = req.ReviewNotes
		return nil
	})
	if err != nil {
		return nil, storeError(err, "application", "", "failed to review application")
	}
	s.metrics.RecordTransition("scholarship_application", string(app.Status))

	switch app.Status {
	case models.ScholarshipAppApproved:
		s.notify(ctx, app.ApplicantID, sch, ActionApproved, map[string]interface{}{"application_id": app.ID})
	case models.ScholarshipAppRejected:
		s.notify(ctx, app.ApplicantID, sch, ActionRejected, map[string]interface{}{"application_id": app.ID})
	}
	return app, nil
}

// ExportApplications renders the application roster. Creator only.
func (s *ScholarshipService) ExportApplications(ctx context.Context, caller Caller, id, rawFormat string) (*models.ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, validationError(err, err.Error())
	}
	sch, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	apps, err := s.repo.AllApplications(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to load applications")
	}

	data := export.Dataset{
		Title: "Applications: " + sch.Title,
		Summary: []string{
			fmt.Sprintf("Deadline: %s", sch.ApplicationDeadline.Format("2006-01-02")),
			fmt.Sprintf("Applications: %d / %d", sch.CurrentApplications, sch.MaxApplications),
		},
		Headers: []string{"application_id", "applicant_id", "status", "submitted_at", "reviewed_at"},
		Rows:    make([]map[string]string, 0, len(apps)),
	}
	for _, app := range apps {
		reviewed := ""
		if app.ReviewedAt != nil {
			reviewed = app.ReviewedAt.Format(time.RFC3339)
		}
		data.Rows = append(data.Rows, map[string]string{
			"application_id": app.ID,
			"applicant_id":   app.ApplicantID,
			"status":         string(app.Status),
			"submitted_at":   app.CreatedAt.Format(time.RFC3339),
			"reviewed_at":    reviewed,
		})
	}
	body, err := export.Render(format, data)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	return &models.ExportFile{
		Filename:    fmt.Sprintf("scholarship-%s-applications.%s", sch.ID, format),
		ContentType: format.ContentType(),
		Data:        body,
	}, nil
}

func (s *ScholarshipService) owned(ctx context.Context, caller Caller, id string) (*models.Scholarship, error) {
	sch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Self(caller, sch.CreatorID); err != nil {
		return nil, err
	}
	return sch, nil
}

func (s *ScholarshipService) notify(ctx context.Context, userID string, sch *models.Scholarship, action string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	payload := map[string]interface{}{"scholarship_id": sch.ID, "scholarship_title": sch.Title}
	for k, v := range data {
		payload[k] = v
	}
	s.notifier.Notify(ctx, ScholarshipNotice(userID, sch.Title, action, payload))
}
