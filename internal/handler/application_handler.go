package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type applicationService interface {
	Create(ctx context.Context, caller service.Caller, req models.CreateApplicationRequest) (*models.Application, error)
	Get(ctx context.Context, caller service.Caller, id string) (*models.Application, error)
	List(ctx context.Context, caller service.Caller, filter models.ApplicationFilter) ([]models.Application, *models.Pagination, error)
	Update(ctx context.Context, caller service.Caller, id string, req models.UpdateApplicationRequest) (*models.Application, error)
	Delete(ctx context.Context, caller service.Caller, id string) error
	Stats(ctx context.Context, caller service.Caller) (*models.ApplicationStats, error)
}

// ApplicationHandler serves the caller's job application tracker.
type ApplicationHandler struct {
	service applicationService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(svc applicationService) *ApplicationHandler {
	return &ApplicationHandler{service: svc}
}

// List godoc
// @Summary List own job applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var filter models.ApplicationFilter
	filter.Page, filter.PageSize = pageParams(c)
	if status := c.Query("status"); status != "" {
		s := models.ApplicationStatus(status)
		filter.Status = &s
	}
	apps, pagination, err := h.service.List(c.Request.Context(), caller, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// Create godoc
// @Summary Track a job application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateApplicationRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.CreateApplicationRequest
	if !bindJSON(c, &req, "invalid application payload") {
		return
	}
	app, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Get godoc
// @Summary Get a job application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	app, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Update godoc
// @Summary Update a job application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body models.UpdateApplicationRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [put]
func (h *ApplicationHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.UpdateApplicationRequest
	if !bindJSON(c, &req, "invalid application payload") {
		return
	}
	app, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Delete godoc
// @Summary Delete a job application
// @Tags Applications
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 204 {object} response.Envelope
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Delete(c *gin.Context) {
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

// Stats godoc
// @Summary Job application totals by status
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /applications/stats/summary [get]
func (h *ApplicationHandler) Stats(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
