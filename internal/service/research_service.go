package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

const (
	popularAreasLimit     = 10
	defaultAvailability   = 10
	defaultResearchUpdate = "progress"
)

type researchRepository interface {
	Create(ctx context.Context, c *models.ResearchCollaboration) error
	FindByID(ctx context.Context, id string) (*models.ResearchCollaboration, error)
	List(ctx context.Context, filter models.CollaborationFilter) ([]models.ResearchCollaboration, int, error)
	UpdateStatusLocked(ctx context.Context, id string, mutate func(*models.ResearchCollaboration) error) (*models.ResearchCollaboration, error)
	Apply(ctx context.Context, app *models.CollaborationApplication, check func(*models.ResearchCollaboration) error) error
	ListApplications(ctx context.Context, collaborationID string, status models.CollaborationApplicationStatus, page, pageSize int) ([]models.CollaborationApplication, int, error)
	ReviewApplication(ctx context.Context, collaborationID, applicationID string, review func(*models.CollaborationApplication, *models.ResearchCollaboration) error) (*models.ReviewOutcome, error)
	AddParticipant(ctx context.Context, p *models.CollaborationParticipant, check func(*models.ResearchCollaboration) error) error
	ListParticipants(ctx context.Context, collaborationID string) ([]models.CollaborationParticipant, error)
	IsActiveParticipant(ctx context.Context, collaborationID, userID string) (bool, error)
	CreateUpdate(ctx context.Context, u *models.ResearchUpdate) error
	ListUpdates(ctx context.Context, collaborationID, viewerID string, includePrivate bool, page, pageSize int) ([]models.ResearchUpdate, int, error)
	Stats(ctx context.Context) (*models.ResearchStats, error)
	PopularAreas(ctx context.Context, limit int) ([]models.AreaPopularity, error)
}

// ResearchService runs research collaborations led by alumni.
type ResearchService struct {
	repo      researchRepository
	users     userLookup
	cache     *CacheService
	notifier  Notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResearchService constructs the service. cache may be nil.
func NewResearchService(repo researchRepository, users userLookup, cache *CacheService, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ResearchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchService{repo: repo, users: users, cache: cache, notifier: notifier, metrics: metrics, validator: validate, logger: logger}
}

func errCollaborationFull() error {
	return appErrors.Clone(appErrors.ErrConflict, "collaboration has reached its maximum number of collaborators")
}

// Create opens a collaboration led by the calling alumnus.
func (s *ResearchService) Create(ctx context.Context, caller Caller, req models.CreateCollaborationRequest) (*models.ResearchCollaboration, error) {
	if err := RoleEquals(caller, models.RoleAlumni); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid collaboration payload")
	}
	c := &models.ResearchCollaboration{
		LeadResearcherID: caller.ID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		ResearchArea:     strings.TrimSpace(req.ResearchArea),
		Objectives:       req.Objectives,
		Methodology:      req.Methodology,
		ExpectedOutcomes: req.ExpectedOutcomes,
		Timeline:         req.Timeline,
		MaxCollaborators: models.MaxCollaborators,
		Budget:           req.Budget,
		Requirements:     req.Requirements,
		Deliverables:     req.Deliverables,
		Status:           models.CollaborationOpen,
	}
	if req.MaxCollaborators != nil {
		c.MaxCollaborators = *req.MaxCollaborators
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, internalError(err, "failed to create collaboration")
	}
	s.metrics.RecordTransition("collaboration", string(c.Status))
	s.invalidateStats(ctx)
	return c, nil
}

// List returns collaborations matching the filter.
func (s *ResearchService) List(ctx context.Context, filter models.CollaborationFilter) ([]models.ResearchCollaboration, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list collaborations")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a collaboration by id.
func (s *ResearchService) Get(ctx context.Context, id string) (*models.ResearchCollaboration, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "collaboration", "", "failed to load collaboration")
	}
	return c, nil
}

// UpdateStatus changes the collaboration status. Lead only.
func (s *ResearchService) UpdateStatus(ctx context.Context, caller Caller, id string, req models.UpdateCollaborationStatusRequest) (*models.ResearchCollaboration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status")
	}
	c, err := s.repo.UpdateStatusLocked(ctx, id, func(c *models.ResearchCollaboration) error {
		if err := Self(caller, c.LeadResearcherID); err != nil {
			return err
		}
		c.Status = req.Status
		return nil
	})
	if err != nil {
		return nil, storeError(err, "collaboration", "", "failed to update collaboration")
	}
	s.metrics.RecordTransition("collaboration", string(c.Status))
	s.invalidateStats(ctx)
	return c, nil
}

// Apply submits the caller's application to an open collaboration.
func (s *ResearchService) Apply(ctx context.Context, caller Caller, id string, req models.ApplyCollaborationRequest) (*models.CollaborationApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid application payload")
	}
	app := &models.CollaborationApplication{
		CollaborationID:      id,
		ApplicantID:          caller.ID,
		ApplicationLetter:    req.ApplicationLetter,
		ResearchExperience:   req.ResearchExperience,
		RelevantSkills:       models.StringList(req.RelevantSkills),
		AvailabilityHours:    defaultAvailability,
		ProposedContribution: req.ProposedContribution,
	}
	if req.AvailabilityHours != nil {
		app.AvailabilityHours = *req.AvailabilityHours
	}
	var collab models.ResearchCollaboration
	err := s.repo.Apply(ctx, app, func(c *models.ResearchCollaboration) error {
		switch {
		case c.Status != models.CollaborationOpen:
			return invalidState("collaboration is not accepting applications")
		case c.LeadResearcherID == caller.ID:
			return invalidState("the lead researcher cannot apply to their own collaboration")
		case c.Full():
			return errCollaborationFull()
		}
		collab = *c
		return nil
	})
	if err != nil {
		return nil, storeError(err, "collaboration", "you have already applied to this collaboration", "failed to submit application")
	}
	s.invalidateStats(ctx)
	s.notify(ctx, collab.LeadResearcherID, &collab, ActionReceived, map[string]interface{}{"application_id": app.ID})
	return app, nil
}

// ListApplications returns the applications of a collaboration. Lead only.
func (s *ResearchService) ListApplications(ctx context.Context, caller Caller, id string, status models.CollaborationApplicationStatus, page, pageSize int) ([]models.CollaborationApplication, *models.Pagination, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := Self(caller, c.LeadResearcherID); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListApplications(ctx, id, status, page, pageSize)
	if err != nil {
		return nil, nil, internalError(err, "failed to list applications")
	}
	return items, pagination(page, pageSize, total), nil
}

// Review records the lead's decision. Accepting re-checks capacity against the
// locked collaboration and adds the applicant as a participant.
func (s *ResearchService) Review(ctx context.Context, caller Caller, id, applicationID string, req models.ReviewCollaborationApplicationRequest) (*models.ReviewOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid review payload")
	}
	reviewedAt := time.Now().UTC()
	var collab models.ResearchCollaboration
	outcome, err := s.repo.ReviewApplication(ctx, id, applicationID, func(app *models.CollaborationApplication, c *models.ResearchCollaboration) error {
		if err := Self(caller, c.LeadResearcherID); err != nil {
			return err
		}
		if app.Status.Final() {
			return invalidState("application has already been " + string(app.Status))
		}
		if req.Status == models.CollabAppAccepted && c.Full() {
			return errCollaborationFull()
		}
		app.Status = req.Status
		app.ReviewedBy = &caller.ID
		app.ReviewedAt = &reviewedAt
		app.ReviewNotes = req.ReviewNotes
		collab = *c
		return nil
	})
	if err != nil {
		return nil, storeError(err, "application", "applicant is already a participant", "failed to review application")
	}
	s.metrics.RecordTransition("collaboration_application", string(outcome.Application.Status))
	s.invalidateStats(ctx)

	app := outcome.Application
	switch app.Status {
	case models.CollabAppAccepted:
		s.notify(ctx, app.ApplicantID, &collab, ActionAccepted, map[string]interface{}{"application_id": app.ID})
	case models.CollabAppRejected:
		s.notify(ctx, app.ApplicantID, &collab, ActionRejected, map[string]interface{}{"application_id": app.ID})
	}
	return outcome, nil
}

// AddParticipant adds a user directly. Lead only; capacity applies.
func (s *ResearchService) AddParticipant(ctx context.Context, caller Caller, id string, req models.AddParticipantRequest) (*models.CollaborationParticipant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid participant payload")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, storeError(err, "user", "", "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	p := &models.CollaborationParticipant{CollaborationID: id, UserID: user.ID, Role: req.Role}
	if p.Role == "" {
		p.Role = models.DefaultParticipantRole
	}
	err = s.repo.AddParticipant(ctx, p, func(c *models.ResearchCollaboration) error {
		if err := Self(caller, c.LeadResearcherID); err != nil {
			return err
		}
		if c.Full() {
			return errCollaborationFull()
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "collaboration", "user is already a participant", "failed to add participant")
	}
	s.invalidateStats(ctx)
	return p, nil
}

// ListParticipants returns the members of a collaboration.
func (s *ResearchService) ListParticipants(ctx context.Context, id string) ([]models.CollaborationParticipant, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.repo.ListParticipants(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to list participants")
	}
	return items, nil
}

// PostUpdate publishes an update. Lead and active participants only.
func (s *ResearchService) PostUpdate(ctx context.Context, caller Caller, id string, req models.CreateResearchUpdateRequest) (*models.ResearchUpdate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid update payload")
	}
	if _, err := s.member(ctx, caller, id); err != nil {
		return nil, err
	}
	u := &models.ResearchUpdate{
		CollaborationID: id,
		AuthorID:        caller.ID,
		Title:           strings.TrimSpace(req.Title),
		Content:         req.Content,
		UpdateType:      req.UpdateType,
		IsPublic:        true,
	}
	if u.UpdateType == "" {
		u.UpdateType = defaultResearchUpdate
	}
	if req.IsPublic != nil {
		u.IsPublic = *req.IsPublic
	}
	if err := s.repo.CreateUpdate(ctx, u); err != nil {
		return nil, internalError(err, "failed to create update")
	}
	return u, nil
}

// ListUpdates returns updates visible to the caller. Private updates are shown
// to their author and the lead.
func (s *ResearchService) ListUpdates(ctx context.Context, caller Caller, id string, page, pageSize int) ([]models.ResearchUpdate, *models.Pagination, error) {
	c, err := s.member(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListUpdates(ctx, id, caller.ID, c.LeadResearcherID == caller.ID, page, pageSize)
	if err != nil {
		return nil, nil, internalError(err, "failed to list updates")
	}
	return items, pagination(page, pageSize, total), nil
}

func (s *ResearchService) member(ctx context.Context, caller Caller, id string) (*models.ResearchCollaboration, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	isMember := false
	if c.LeadResearcherID != caller.ID {
		isMember, err = s.repo.IsActiveParticipant(ctx, id, caller.ID)
		if err != nil {
			return nil, internalError(err, "failed to check participation")
		}
	}
	if err := Participant(caller, c, isMember); err != nil {
		return nil, err
	}
	return c, nil
}

// Stats summarises all collaborations.
func (s *ResearchService) Stats(ctx context.Context) (*models.ResearchStats, error) {
	stats, err := cached(ctx, s.cache, cacheKeyResearchStats, s.repo.Stats)
	if err != nil {
		return nil, internalError(err, "failed to load research stats")
	}
	return stats, nil
}

// PopularAreas ranks research areas by collaboration count.
func (s *ResearchService) PopularAreas(ctx context.Context) ([]models.AreaPopularity, error) {
	areas, err := cached(ctx, s.cache, cacheKeyPopularResearch, func(ctx context.Context) ([]models.AreaPopularity, error) {
		return s.repo.PopularAreas(ctx, popularAreasLimit)
	})
	if err != nil {
		return nil, internalError(err, "failed to load popular research areas")
	}
	return areas, nil
}

func (s *ResearchService) invalidateStats(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cacheKeyResearchStats+"*")
}

func (s *ResearchService) notify(ctx context.Context, userID string, c *models.ResearchCollaboration, action string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	payload := map[string]interface{}{"collaboration_id": c.ID, "collaboration_title": c.Title}
	for k, v := range data {
		payload[k] = v
	}
	s.notifier.Notify(ctx, ResearchNotice(userID, c.Title, action, payload))
}
