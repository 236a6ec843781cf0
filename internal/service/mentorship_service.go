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

type mentorshipRepository interface {
	Create(ctx context.Context, m *models.Mentorship) error
	ExistsPair(ctx context.Context, mentorID, menteeID string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Mentorship, error)
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]models.Mentorship, int, error)
	ListForMentor(ctx context.Context, mentorID string, status models.MentorshipStatus, page, pageSize int) ([]models.Mentorship, int, error)
	Respond(ctx context.Context, id string, status models.MentorshipStatus, message *string) (*models.Mentorship, error)
	Delete(ctx context.Context, id string) error
}

// MentorshipService handles mentorship requests between users.
type MentorshipService struct {
	repo      mentorshipRepository
	users     userLookup
	notifier  Notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMentorshipService constructs the service.
func NewMentorshipService(repo mentorshipRepository, users userLookup, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MentorshipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MentorshipService{repo: repo, users: users, notifier: notifier, metrics: metrics, validator: validate, logger: logger}
}

// Request asks another active user to become the caller's mentor.
func (s *MentorshipService) Request(ctx context.Context, caller Caller, req models.CreateMentorshipRequest) (*models.Mentorship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid mentorship payload")
	}
	mentor, err := s.users.FindByID(ctx, req.MentorID)
	if err != nil {
		return nil, storeError(err, "mentor", "", "failed to load mentor")
	}
	if !mentor.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "mentor not found")
	}
	if mentor.ID == caller.ID {
		return nil, invalidState("cannot request mentorship from yourself")
	}

	exists, err := s.repo.ExistsPair(ctx, mentor.ID, caller.ID)
	if err != nil {
		return nil, internalError(err, "failed to check mentorship")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "mentorship request already exists")
	}

	m := &models.Mentorship{
		MentorID: mentor.ID,
		MenteeID: caller.ID,
		Status:   models.MentorshipPending,
		Message:  req.Message,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, storeError(err, "mentorship", "mentorship request already exists", "failed to create mentorship")
	}
	s.metrics.RecordTransition("mentorship", string(m.Status))

	s.notify(ctx, mentor.ID, caller.ID, ActionRequested, m.ID)
	return m, nil
}

// List returns mentorships where the caller is either party.
func (s *MentorshipService) List(ctx context.Context, caller Caller, page, pageSize int) ([]models.Mentorship, *models.Pagination, error) {
	items, total, err := s.repo.ListForUser(ctx, caller.ID, page, pageSize)
	if err != nil {
		return nil, nil, internalError(err, "failed to list mentorships")
	}
	return items, pagination(page, pageSize, total), nil
}

// Pending lists requests awaiting the caller's answer.
func (s *MentorshipService) Pending(ctx context.Context, caller Caller, page, pageSize int) ([]models.Mentorship, *models.Pagination, error) {
	return s.forMentor(ctx, caller, models.MentorshipPending, page, pageSize)
}

// ActiveMentees lists accepted mentorships where the caller mentors.
func (s *MentorshipService) ActiveMentees(ctx context.Context, caller Caller, page, pageSize int) ([]models.Mentorship, *models.Pagination, error) {
	return s.forMentor(ctx, caller, models.MentorshipAccepted, page, pageSize)
}

func (s *MentorshipService) forMentor(ctx context.Context, caller Caller, status models.MentorshipStatus, page, pageSize int) ([]models.Mentorship, *models.Pagination, error) {
	items, total, err := s.repo.ListForMentor(ctx, caller.ID, status, page, pageSize)
	if err != nil {
		return nil, nil, internalError(err, "failed to list mentorships")
	}
	return items, pagination(page, pageSize, total), nil
}

// Get returns a mentorship visible to the caller.
func (s *MentorshipService) Get(ctx context.Context, caller Caller, id string) (*models.Mentorship, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "mentorship", "", "failed to load mentorship")
	}
	if m.MenteeID == caller.ID {
		return m, nil
	}
	if err := SelfOrHidden(caller, m.MentorID, "mentorship"); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateStatus lets the mentor accept or reject a pending request.
func (s *MentorshipService) UpdateStatus(ctx context.Context, caller Caller, id string, req models.UpdateMentorshipRequest) (*models.Mentorship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid mentorship payload")
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "mentorship", "", "failed to load mentorship")
	}
	if err := SelfOrHidden(caller, m.MentorID, "mentorship"); err != nil {
		return nil, err
	}
	if m.Status != models.MentorshipPending {
		return nil, invalidState("mentorship request has already been answered")
	}

	updated, err := s.repo.Respond(ctx, id, req.Status, req.Message)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// answered concurrently
			return nil, invalidState("mentorship request has already been answered")
		}
		return nil, internalError(err, "failed to update mentorship")
	}
	s.metrics.RecordTransition("mentorship", string(updated.Status))

	action := ActionAccepted
	if updated.Status == models.MentorshipRejected {
		action = ActionRejected
	}
	s.notify(ctx, updated.MenteeID, caller.ID, action, updated.ID)
	return updated, nil
}

// Delete removes a mentorship. Either party may delete it.
func (s *MentorshipService) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "mentorship", "", "failed to delete mentorship")
	}
	return nil
}

// notify tells recipientID about an action taken by actorID.
func (s *MentorshipService) notify(ctx context.Context, recipientID, actorID, action, mentorshipID string) {
	if s.notifier == nil {
		return
	}
	name := "A user"
	if actor, err := s.users.FindByID(ctx, actorID); err == nil {
		name = actor.FullName
	} else {
		s.logger.Warn("mentorship notification without actor name", zap.String("user_id", actorID), zap.Error(err))
	}
	s.notifier.Notify(ctx, MentorshipNotice(recipientID, name, action, map[string]interface{}{"mentorship_id": mentorshipID}))
}
