package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type projectService interface {
	Create(ctx context.Context, caller service.Caller, req models.CreateProjectRequest) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, caller service.Caller, id string, req models.UpdateProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, caller service.Caller, id string) error
	Support(ctx context.Context, caller service.Caller, id string, req models.SupportProjectRequest) (*models.SupportResult, error)
	ListSupports(ctx context.Context, id string) ([]models.ProjectSupportView, error)
	MySupports(ctx context.Context, caller service.Caller, page, pageSize int) ([]models.ProjectSupport, *models.Pagination, error)
	FundingReport(ctx context.Context, caller service.Caller, id, rawFormat string) (*models.ExportFile, error)
}

// ProjectHandler exposes student projects and alumni support.
type ProjectHandler struct {
	service projectService
}

// NewProjectHandler constructs the handler.
func NewProjectHandler(svc projectService) *ProjectHandler {
	return &ProjectHandler{service: svc}
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param category query string false "Category filter"
// @Param funding_type query string false "Funding type filter"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	filter := models.ProjectFilter{
		Status:      models.ProjectStatus(c.Query("status")),
		Category:    c.Query("category"),
		FundingType: c.Query("funding_type"),
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
// @Summary Propose a project
// @Description Students only
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateProjectRequest true "Project"
// @Success 201 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.CreateProjectRequest
	if !bindJSON(c, &req, "invalid project payload") {
		return
	}
	p, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// MySupports godoc
// @Summary Support given by the calling alumnus
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /projects/my-supports [get]
func (h *ProjectHandler) MySupports(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.service.MySupports(c.Request.Context(), caller, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, p, nil)
}

// Update godoc
// @Summary Update a project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param payload body models.UpdateProjectRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.UpdateProjectRequest
	if !bindJSON(c, &req, "invalid project payload") {
		return
	}
	p, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, p, nil)
}

// Delete godoc
// @Summary Delete a project
// @Tags Projects
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 204 {object} response.Envelope
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
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

// Support godoc
// @Summary Support a project
// @Description Alumni only. Financial support is added to the funding total.
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param payload body models.SupportProjectRequest true "Support"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id}/support [post]
func (h *ProjectHandler) Support(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.SupportProjectRequest
	if !bindJSON(c, &req, "invalid support payload") {
		return
	}
	res, err := h.service.Support(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Supports godoc
// @Summary Support received by a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/support [get]
func (h *ProjectHandler) Supports(c *gin.Context) {
	items, err := h.service.ListSupports(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Report godoc
// @Summary Funding report
// @Description Available to the project owner
// @Tags Projects
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /projects/{id}/report [get]
func (h *ProjectHandler) Report(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	file, err := h.service.FundingReport(c.Request.Context(), caller, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}
