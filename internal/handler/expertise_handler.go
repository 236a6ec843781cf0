package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type expertiseService interface {
	Upsert(ctx context.Context, caller service.Caller, req models.ExpertiseRequest) (*models.AlumniExpertise, error)
	List(ctx context.Context, filter models.ExpertiseFilter) ([]models.AlumniExpertise, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.AlumniExpertise, error)
	Update(ctx context.Context, caller service.Caller, id string, req models.ExpertiseRequest) (*models.AlumniExpertise, error)
	Delete(ctx context.Context, caller service.Caller, id string) error
}

// ExpertiseHandler serves the alumni expertise directory.
type ExpertiseHandler struct {
	service expertiseService
}

func NewExpertiseHandler(svc expertiseService) *ExpertiseHandler {
	return &ExpertiseHandler{service: svc}
}

// List godoc
// @Summary Alumni expertise directory
// @Tags Expertise
// @Produce json
// @Security BearerAuth
// @Param availability query string false "Availability filter"
// @Param expertise_area query string false "Area filter"
// @Success 200 {object} response.Envelope
// @Router /projects/alumni/expertise [get]
func (h *ExpertiseHandler) List(c *gin.Context) {
	filter := models.ExpertiseFilter{
		Availability:  models.AvailabilityStatus(c.Query("availability")),
		ExpertiseArea: c.Query("expertise_area"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Upsert godoc
// @Summary Publish the caller's expertise
// @Description Creates or replaces the calling alumnus' record
// @Tags Expertise
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ExpertiseRequest true "Expertise"
// @Success 200 {object} response.Envelope
// @Router /projects/alumni/expertise [post]
func (h *ExpertiseHandler) Upsert(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.ExpertiseRequest
	if !bindJSON(c, &req, "invalid expertise payload") {
		return
	}
	e, err := h.service.Upsert(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, e, nil)
}

// Get godoc
// @Summary Get an expertise record
// @Tags Expertise
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expertise ID"
// @Success 200 {object} response.Envelope
// @Router /projects/alumni/expertise/{id} [get]
func (h *ExpertiseHandler) Get(c *gin.Context) {
	e, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, e, nil)
}

// Update godoc
// @Summary Update an expertise record
// @Tags Expertise
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expertise ID"
// @Param payload body models.ExpertiseRequest true "Expertise"
// @Success 200 {object} response.Envelope
// @Router /projects/alumni/expertise/{id} [put]
func (h *ExpertiseHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.ExpertiseRequest
	if !bindJSON(c, &req, "invalid expertise payload") {
		return
	}
	e, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, e, nil)
}

// Delete godoc
// @Summary Remove an expertise record
// @Tags Expertise
// @Security BearerAuth
// @Param id path string true "Expertise ID"
// @Success 204 {object} response.Envelope
// @Router /projects/alumni/expertise/{id} [delete]
func (h *ExpertiseHandler) Delete(c *gin.Context) {
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
