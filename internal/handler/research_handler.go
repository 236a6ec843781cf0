package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type researchService interface {
	Create(ctx context.Context, caller service.Caller, req models.CreateCollaborationRequest) (*models.ResearchCollaboration, error)
	List(ctx context.Context, filter models.CollaborationFilter) ([]models.ResearchCollaboration, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ResearchCollaboration, error)
	UpdateStatus(ctx context.Context, caller service.Caller, id string, req models.UpdateCollaborationStatusRequest) (*models.ResearchCollaboration, error)
	Apply(ctx context.Context, caller service.Caller, id string, req models.ApplyCollaborationRequest) (*models.CollaborationApplication, error)
	ListApplications(ctx context.Context, caller service.Caller, id string, status models.CollaborationApplicationStatus, page, pageSize int) ([]models.CollaborationApplication, *models.Pagination, error)
	Review(ctx context.Context, caller service.Caller, id, applicationID string, req models.ReviewCollaborationApplicationRequest) (*models.ReviewOutcome, error)
	AddParticipant(ctx context.Context, caller service.Caller, id string, req models.AddParticipantRequest) (*models.CollaborationParticipant, error)
	ListParticipants(ctx context.Context, id string) ([]models.CollaborationParticipant, error)
	PostUpdate(ctx context.Context, caller service.Caller, id string, req models.CreateResearchUpdateRequest) (*models.ResearchUpdate, error)
	ListUpdates(ctx context.Context, caller service.Caller, id string, page, pageSize int) ([]models.ResearchUpdate, *models.Pagination, error)
	Stats(ctx context.Context) (*models.ResearchStats, error)
	PopularAreas(ctx context.Context) ([]models.AreaPopularity, error)
}

// ResearchHandler exposes research collaborations, their applications,
// participants and progress updates.
type ResearchHandler struct {
	service researchService
}

// NewResearchHandler constructs the handler.
func NewResearchHandler(svc researchService) *ResearchHandler {
	return &ResearchHandler{service: svc}
}

// List godoc
// @Summary List collaborations
// @Tags Research
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param research_area query string false "Area filter"
// @Success 200 {object} response.Envelope
// @Router /research-collaborations [get]
func (h *ResearchHandler) List(c *gin.Context) {
	filter := models.CollaborationFilter{
		Status:       models.CollaborationStatus(c.Query("status")),
		ResearchArea: c.Query("research_area"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Open a collaboration
// @Description Alumni only. The caller becomes the lead researcher.
// @Tags Research
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCollaborationRequest true "Collaboration"
// @Success 201 {object} response.Envelope
// @Router /research-collaborations [post]
func (h *ResearchHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.CreateCollaborationRequest
	if !bindJSON(c, &req, "invalid collaboration payload") {
		return
	}
	rc, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rc)
}

// Stats godoc
// @Summary Collaboration totals
// @Tags Research
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /research-collaborations/stats/summary [get]
func (h *ResearchHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// PopularAreas godoc
// @Summary Most active research areas
// @Tags Research
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /research-collaborations/areas/popular [get]
func (h *ResearchHandler) PopularAreas(c *gin.Context) {
	areas, err := h.service.PopularAreas(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, areas, nil)
}

// Get godoc
// @Summary Get a collaboration
// @Tags Research
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /research-collaborations/{id} [get]
func (h *ResearchHandler) Get(c *gin.Context) {
	rc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rc, nil)
}

// UpdateStatus godoc
// @Summary Change collaboration status
// @Tags Research
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Param payload body models.UpdateCollaborationStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /research-collaborations/{id}/status [put]
func (h *ResearchHandler) UpdateStatus(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.UpdateCollaborationStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	rc, err := h.service.UpdateStatus(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rc, nil)
}

// Apply godoc
// @Summary Apply to join a collaboration
// @Tags Research
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Param payload body models.ApplyCollaborationRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /research-collaborations/{id}/apply [post]
func (h *ResearchHandler) Apply(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.ApplyCollaborationRequest
	if !bindJSON(c, &req, "invalid application payload") {
		return
	}
	app, err := h.service.Apply(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Applications godoc
// @Summary Applications to a collaboration
// @Description Visible to the lead researcher only
// @Tags Research
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Param status query string false "Application status"
// @Success 200 {object} response.Envelope
// @Router /research-collaborations/{id}/applications [get]
func (h *ResearchHandler) Applications(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	status := models.CollaborationApplicationStatus(c.Query("status"))
	items, pagination, err := h.service.ListApplications(c.Request.Context(), caller, c.Param("id"), status, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Review godoc
// @Summary Review a collaboration application
// @Description Accepting adds the applicant as a participant
// @Tags Research
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Param applicationId path string true "Application ID"
// @Param payload body models.ReviewCollaborationApplicationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /research-collaborations/{id}/applications/{applicationId}/review [put]
func (h *ResearchHandler) Review(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.ReviewCollaborationApplicationRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	outcome, err := h.service.Review(c.Request.Context(), caller, c.Param("id"), c.Param("applicationId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Participants godoc
// @Summary Collaboration participants
// @Tags Research
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Success 200 {object} response.Envelope
// @Router /research-collaborations/{id}/participants [get]
func (h *ResearchHandler) Participants(c *gin.Context) {
	items, err := h.service.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// AddParticipant godoc
// @Summary Add a participant directly
// @Tags Research
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Param payload body models.AddParticipantRequest true "Participant"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /research-collaborations/{id}/participants [post]
func (h *ResearchHandler) AddParticipant(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.AddParticipantRequest
	if !bindJSON(c, &req, "invalid participant payload") {
		return
	}
	p, err := h.service.AddParticipant(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// Updates godoc
// @Summary Progress updates
// @Description Members see every update, others only public ones
// @Tags Research
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Success 200 {object} response.Envelope
// @Router /research-collaborations/{id}/updates [get]
func (h *ResearchHandler) Updates(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.service.ListUpdates(c.Request.Context(), caller, c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// PostUpdate godoc
// @Summary Post a progress update
// @Tags Research
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collaboration ID"
// @Param payload body models.CreateResearchUpdateRequest true "Update"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /research-collaborations/{id}/updates [post]
func (h *ResearchHandler) PostUpdate(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.CreateResearchUpdateRequest
	if !bindJSON(c, &req, "invalid update payload") {
		return
	}
	u, err := h.service.PostUpdate(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u)
}
