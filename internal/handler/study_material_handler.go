package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type studyMaterialService interface {
	Upload(ctx context.Context, caller service.Caller, req models.UploadMaterialRequest, file service.FileUpload) (*models.StudyMaterial, error)
	List(ctx context.Context, caller service.Caller, filter models.StudyMaterialFilter) ([]models.StudyMaterial, *models.Pagination, error)
	Get(ctx context.Context, caller service.Caller, id string) (*models.StudyMaterial, error)
	Download(ctx context.Context, caller service.Caller, id string) (*models.DownloadTicket, error)
	ResolveDownload(ctx context.Context, token string) (*service.DownloadTarget, error)
	Rate(ctx context.Context, caller service.Caller, id string, req models.RateMaterialRequest) (*models.StudyMaterial, error)
	ListRatings(ctx context.Context, caller service.Caller, id string, page, pageSize int) ([]models.StudyMaterialRating, *models.Pagination, error)
	Approve(ctx context.Context, caller service.Caller, id string) (*models.StudyMaterial, error)
	Delete(ctx context.Context, caller service.Caller, id string) error
	Stats(ctx context.Context) (*models.StudyMaterialStats, error)
	PopularSubjects(ctx context.Context) ([]models.SubjectPopularity, error)
}

// StudyMaterialHandler exposes the shared study material catalogue.
type StudyMaterialHandler struct {
	service studyMaterialService
}

// NewStudyMaterialHandler constructs the handler.
func NewStudyMaterialHandler(svc studyMaterialService) *StudyMaterialHandler {
	return &StudyMaterialHandler{service: svc}
}

// formTags accepts repeated tags fields as well as one comma separated value.
func formTags(c *gin.Context) []string {
	var tags []string
	for _, raw := range c.PostFormArray("tags") {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// Upload godoc
// @Summary Upload a study material
// @Description Materials from alumni are approved on upload
// @Tags Study Materials
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Material file"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param subject_code formData string false "Subject code"
// @Param subject_name formData string false "Subject name"
// @Param tags formData string false "Comma separated tags"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /study-materials [post]
func (h *StudyMaterialHandler) Upload(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.UploadMaterialRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material payload"))
		return
	}
	req.Tags = formTags(c)

	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	files, release, err := openUploads([]*multipart.FileHeader{fh})
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	m, err := h.service.Upload(c.Request.Context(), caller, req, files[0])
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

// List godoc
// @Summary List study materials
// @Tags Study Materials
// @Produce json
// @Security BearerAuth
// @Param subject_code query string false "Subject code"
// @Param subject_name query string false "Subject name contains"
// @Param approved_only query bool false "Only approved materials"
// @Success 200 {object} response.Envelope
// @Router /study-materials [get]
func (h *StudyMaterialHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	filter := models.StudyMaterialFilter{
		SubjectCode:  c.Query("subject_code"),
		SubjectName:  c.Query("subject_name"),
		ApprovedOnly: queryBool(c, "approved_only", false),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), caller, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Stats godoc
// @Summary Catalogue totals
// @Tags Study Materials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /study-materials/stats/summary [get]
func (h *StudyMaterialHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// PopularSubjects godoc
// @Summary Subjects with the most materials
// @Tags Study Materials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /study-materials/subjects/popular [get]
func (h *StudyMaterialHandler) PopularSubjects(c *gin.Context) {
	items, err := h.service.PopularSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// FileDownload godoc
// @Summary Fetch a material through a signed link
// @Tags Study Materials
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /study-materials/files/download [get]
func (h *StudyMaterialHandler) FileDownload(c *gin.Context) {
	target, err := h.service.ResolveDownload(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(target.Path, target.Filename)
}

// Get godoc
// @Summary Get a study material
// @Tags Study Materials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /study-materials/{id} [get]
func (h *StudyMaterialHandler) Get(c *gin.Context) {
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

// Delete godoc
// @Summary Delete a study material
// @Tags Study Materials
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 204 {object} response.Envelope
// @Router /study-materials/{id} [delete]
func (h *StudyMaterialHandler) Delete(c *gin.Context) {
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

// Download godoc
// @Summary Record a download and issue a signed link
// @Tags Study Materials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /study-materials/{id}/download [post]
func (h *StudyMaterialHandler) Download(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	ticket, err := h.service.Download(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// Rate godoc
// @Summary Rate a material
// @Tags Study Materials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Param payload body models.RateMaterialRequest true "Rating"
// @Success 200 {object} response.Envelope
// @Router /study-materials/{id}/ratings [post]
func (h *StudyMaterialHandler) Rate(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.RateMaterialRequest
	if !bindJSON(c, &req, "invalid rating payload") {
		return
	}
	m, err := h.service.Rate(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}

// Ratings godoc
// @Summary Ratings of a material
// @Tags Study Materials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /study-materials/{id}/ratings [get]
func (h *StudyMaterialHandler) Ratings(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.service.ListRatings(c.Request.Context(), caller, c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Approve godoc
// @Summary Approve a material
// @Description Alumni only
// @Tags Study Materials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /study-materials/{id}/approve [put]
func (h *StudyMaterialHandler) Approve(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	m, err := h.service.Approve(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, m, nil)
}
