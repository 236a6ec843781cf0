package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type scholarshipService interface {
	Create(ctx context.Context, caller service.Caller, req models.CreateScholarshipRequest) (*models.Scholarship, error)
	List(ctx context.Context, filter models.ScholarshipFilter) ([]models.Scholarship, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Scholarship, error)
	Update(ctx context.Context, caller service.Caller, id string, req models.UpdateScholarshipRequest) (*models.Scholarship, error)
	Delete(ctx context.Context, caller service.Caller, id string) error
	Apply(ctx context.Context, caller service.Caller, id string, req models.ApplyScholarshipRequest) (*models.ScholarshipApplication, error)
	ListApplications(ctx context.Context, caller service.Caller, id string, page, pageSize int) ([]models.ScholarshipApplication, *models.Pagination, error)
	MyApplications(ctx context.Context, caller service.Caller, page, pageSize int) ([]models.ScholarshipApplication, *models.Pagination, error)
	Review(ctx context.Context, caller service.Caller, id, applicationID string, req models.ReviewScholarshipApplicationRequest) (*models.ScholarshipApplication, error)
	ExportApplications(ctx context.Context, caller service.Caller, id, rawFormat string) (*models.ExportFile, error)
}

// ScholarshipHandler exposes scholarship postings and their applications.
type ScholarshipHandler struct {
	service scholarshipService
}

// NewScholarshipHandler constructs the handler.
func NewScholarshipHandler(svc scholarshipService) *ScholarshipHandler {
	return &ScholarshipHandler{service: svc}
}

// List godoc
// @Summary List scholarships
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param category query string false "Category filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /scholarships [get]
func (h *ScholarshipHandler) List(c *gin.Context) {
	filter := models.ScholarshipFilter{
		Status:   models.ScholarshipStatus(c.Query("status")),
		Category: c.Query("category"),
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
// @Summary Post a scholarship
// @Description Alumni only
// @Tags Scholarships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateScholarshipRequest true "Scholarship"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /scholarships [post]
func (h *ScholarshipHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.CreateScholarshipRequest
	if !bindJSON(c, &req, "invalid scholarship payload") {
		return
	}
	sch, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sch)
}

// MyApplications godoc
// @Summary The caller's scholarship applications
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /scholarships/my-applications [get]
func (h *ScholarshipHandler) MyApplications(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.service.MyApplications(c.Request.Context(), caller, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a scholarship
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scholarship ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scholarships/{id} [get]
func (h *ScholarshipHandler) Get(c *gin.Context) {
	sch, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sch, nil)
}

// Update godoc
// @Summary Update a scholarship
// @Tags Scholarships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scholarship ID"
// @Param payload body models.UpdateScholarshipRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /scholarships/{id} [put]
func (h *ScholarshipHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.UpdateScholarshipRequest
	if !bindJSON(c, &req, "invalid scholarship payload") {
		return
	}
	sch, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sch, nil)
}

// Delete godoc
// @Summary Delete a scholarship
// @Tags Scholarships
// @Security BearerAuth
// @Param id path string true "Scholarship ID"
// @Success 204 {object} response.Envelope
// @Router /scholarships/{id} [delete]
func (h *ScholarshipHandler) Delete(c *gin.Context) {
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

// Apply godoc
// @Summary Apply for a scholarship
// @Description Students only. Fails when the scholarship is closed, past its deadline or full.
// @Tags Scholarships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scholarship ID"
// @Param payload body models.ApplyScholarshipRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /scholarships/{id}/apply [post]
func (h *ScholarshipHandler) Apply(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.ApplyScholarshipRequest
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
// @Summary Applications to a scholarship
// @Description Visible to the scholarship creator only
// @Tags Scholarships
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scholarship ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /scholarships/{id}/applications [get]
func (h *ScholarshipHandler) Applications(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.service.ListApplications(c.Request.Context(), caller, c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Export godoc
// @Summary Export applications
// @Tags Scholarships
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Scholarship ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /scholarships/{id}/applications/export [get]
func (h *ScholarshipHandler) Export(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	file, err := h.service.ExportApplications(c.Request.Context(), caller, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Review godoc
// @Summary Review an application
// @Tags Scholarships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scholarship ID"
// @Param applicationId path string true "Application ID"
// @Param payload body models.ReviewScholarshipApplicationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scholarships/{id}/applications/{applicationId}/review [put]
func (h *ScholarshipHandler) Review(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.ReviewScholarshipApplicationRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	app, err := h.service.Review(c.Request.Context(), caller, c.Param("id"), c.Param("applicationId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}
