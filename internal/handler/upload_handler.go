package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type uploadService interface {
	Upload(ctx context.Context, caller service.Caller, file service.FileUpload, fileType, description string) (*models.UploadedFile, error)
	UploadMany(ctx context.Context, caller service.Caller, files []service.FileUpload, fileType, description string) (*models.BatchUploadResult, error)
	List(ctx context.Context, caller service.Caller) ([]models.UploadedFile, error)
	Info(ctx context.Context, caller service.Caller, filename string) (*models.UploadedFile, error)
	Delete(ctx context.Context, caller service.Caller, filename string) error
	ResolveDownload(ctx context.Context, token string) (*service.DownloadTarget, error)
}

// UploadHandler manages the caller's documents.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(svc uploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// openUploads opens every multipart part. The returned closer releases them.
func openUploads(headers []*multipart.FileHeader) ([]service.FileUpload, func(), error) {
	files := make([]service.FileUpload, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	release := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			release()
			return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file part")
		}
		closers = append(closers, f)
		files = append(files, service.FileUpload{
			Filename:    fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}
	return files, release, nil
}

// Upload godoc
// @Summary Upload a document
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Document"
// @Param file_type formData string false "Kind of document"
// @Param description formData string false "Description"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /uploads/upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
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

	out, err := h.service.Upload(c.Request.Context(), caller, files[0], c.PostForm("file_type"), c.PostForm("description"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// UploadMultiple godoc
// @Summary Upload several documents
// @Description Rejected files are reported per file
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "Documents"
// @Success 201 {object} response.Envelope
// @Router /uploads/upload/multiple [post]
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form required"))
		return
	}
	files, release, err := openUploads(form.File["files"])
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	result, err := h.service.UploadMany(c.Request.Context(), caller, files, c.PostForm("file_type"), c.PostForm("description"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary The caller's documents
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /uploads/files [get]
func (h *UploadHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	files, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, nil)
}

// Info godoc
// @Summary Document details with a fresh download link
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param filename path string true "Stored file name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /uploads/files/{filename} [get]
func (h *UploadHandler) Info(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	f, err := h.service.Info(c.Request.Context(), caller, c.Param("filename"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, f, nil)
}

// Delete godoc
// @Summary Delete a document
// @Tags Uploads
// @Security BearerAuth
// @Param filename path string true "Stored file name"
// @Success 204 {object} response.Envelope
// @Router /uploads/files/{filename} [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller, c.Param("filename")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download godoc
// @Summary Download through a signed link
// @Tags Uploads
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /uploads/download [get]
func (h *UploadHandler) Download(c *gin.Context) {
	target, err := h.service.ResolveDownload(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(target.Path, target.Filename)
}
