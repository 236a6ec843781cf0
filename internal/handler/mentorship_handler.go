package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type mentorshipService interface {
	Request(ctx context.Context, caller service.Caller, req models.CreateMentorshipRequest) (*models.Mentorship, error)
	List(ctx context.Context, caller service.Caller, page, pageSize int) ([]models.Mentorship, *models.Pagination, error)
	Pending(ctx context.Context, caller service.Caller, page, pageSize int) ([]models.Mentorship, *models.Pagination, error)
	ActiveMentees(ctx context.Context, caller service.Caller, page, pageSize int) ([]models.Mentorship, *models.Pagination, error)
	Get(ctx context.Context, caller service.Caller, id string) (*models.Mentorship, error)
	UpdateStatus(ctx context.Context, caller service.Caller, id string, req models.UpdateMentorshipRequest) (*models.Mentorship, error)
	Delete(ctx context.Context, caller service.Caller, id string) error
}

// MentorshipHandler exposes mentorship request endpoints.
type MentorshipHandler struct {
	service mentorshipService
}

// NewMentorshipHandler constructs the handler.
func NewMentorshipHandler(svc mentorshipService) *MentorshipHandler {
	return &MentorshipHandler{service: svc}
}

// List godoc
// @Summary Mentorships the caller takes part in
// @Tags Mentorship
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /mentorship [get]
func (h *MentorshipHandler) List(c *gin.Context) {
	h.list(c, h.service.List)
}

// Pending godoc
// @Summary Pending requests addressed to the calling mentor
// @Tags Mentorship
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /mentorship/requests/pending [get]
func (h *MentorshipHandler) Pending(c *gin.Context) {
	h.list(c, h.service.Pending)
}

// ActiveMentees godoc
// @Summary Accepted mentees of the calling mentor
// @Tags Mentorship
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /mentorship/mentees/active [get]
func (h *MentorshipHandler) ActiveMentees(c *gin.Context) {
	h.list(c, h.service.ActiveMentees)
}

type mentorshipLister func(ctx context.Context, caller service.Caller, page, pageSize int) ([]models.Mentorship, *models.Pagination, error)

func (h *MentorshipHandler) list(c *gin.Context, fetch mentorshipLister) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := fetch(c.Request.Context(), caller, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Request mentorship
// @Description A student asks an alumnus to mentor them
// @Tags Mentorship
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateMentorshipRequest true "Request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mentorship [post]
func (h *MentorshipHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.CreateMentorshipRequest
	if !bindJSON(c, &req, "invalid mentorship payload") {
		return
	}
	m, err := h.service.Request(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

// Get godoc
// @Summary Get a mentorship
// @Tags Mentorship
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mentorship ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mentorship/{id} [get]
func (h *MentorshipHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	m, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}

// Update godoc
// @Summary Accept or reject a request
// @Tags Mentorship
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mentorship ID"
// @Param payload body models.UpdateMentorshipRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /mentorship/{id} [put]
func (h *MentorshipHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.UpdateMentorshipRequest
	if !bindJSON(c, &req, "invalid mentorship payload") {
		return
	}
	m, err := h.service.UpdateStatus(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}

// Delete godoc
// @Summary Withdraw a mentorship
// @Tags Mentorship
// @Security BearerAuth
// @Param id path string true "Mentorship ID"
// @Success 204 {object} response.Envelope
// @Router /mentorship/{id} [delete]
func (h *MentorshipHandler) Delete(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
