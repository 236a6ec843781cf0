package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/internal/middleware"
	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

type uploadServiceMock struct {
	received    map[string]string
	fileType    string
	description string
	target      *service.DownloadTarget
	resolveErr  error
	batchSize   int
}

func (m *uploadServiceMock) capture(files []service.FileUpload) error {
	if m.received == nil {
		m.received = map[string]string{}
	}
	for _, f := range files {
		data, err := io.ReadAll(f.Content)
		if err != nil {
			return err
		}
		m.received[f.Filename] = string(data)
	}
	return nil
}

func (m *uploadServiceMock) Upload(ctx context.Context, caller service.Caller, file service.FileUpload, fileType, description string) (*models.UploadedFile, error) {
	m.fileType = fileType
	m.description = description
	if err := m.capture([]service.FileUpload{file}); err != nil {
		return nil, err
	}
	return &models.UploadedFile{Filename: "stored.pdf", OriginalName: file.Filename, Size: file.Size}, nil
}

func (m *uploadServiceMock) UploadMany(ctx context.Context, caller service.Caller, files []service.FileUpload, fileType, description string) (*models.BatchUploadResult, error) {
	m.batchSize = len(files)
	if err := m.capture(files); err != nil {
		return nil, err
	}
	return &models.BatchUploadResult{}, nil
}

func (m *uploadServiceMock) List(ctx context.Context, caller service.Caller) ([]models.UploadedFile, error) {
	return nil, nil
}

func (m *uploadServiceMock) Info(ctx context.Context, caller service.Caller, filename string) (*models.UploadedFile, error) {
	return nil, nil
}

func (m *uploadServiceMock) Delete(ctx context.Context, caller service.Caller, filename string) error {
	return nil
}

func (m *uploadServiceMock) ResolveDownload(ctx context.Context, token string) (*service.DownloadTarget, error) {
	return m.target, m.resolveErr
}

type formPart struct {
	field, filename, body string
}

func multipartRequest(t *testing.T, target string, parts []formPart, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})
	return c, w
}

func TestUploadHandlerSingle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &uploadServiceMock{}
	handler := NewUploadHandler(mockSvc)

	req := multipartRequest(t, "/uploads/upload",
		[]formPart{{field: "file", filename: "cv.pdf", body: "%PDF-1.4"}},
		map[string]string{"file_type": "resume", "description": "latest cv"})
	c, w := uploadContext(req)

	handler.Upload(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "%PDF-1.4", mockSvc.received["cv.pdf"])
	assert.Equal(t, "resume", mockSvc.fileType)
	assert.Equal(t, "latest cv", mockSvc.description)
}

func TestUploadHandlerMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUploadHandler(&uploadServiceMock{})

	req := multipartRequest(t, "/uploads/upload", nil, map[string]string{"file_type": "resume"})
	c, w := uploadContext(req)

	handler.Upload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file is required")
}

func TestUploadHandlerMultiple(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &uploadServiceMock{}
	handler := NewUploadHandler(mockSvc)

	req := multipartRequest(t, "/uploads/upload/multiple", []formPart{
		{field: "files", filename: "a.txt", body: "alpha"},
		{field: "files", filename: "b.txt", body: "beta"},
	}, nil)
	c, w := uploadContext(req)

	handler.UploadMultiple(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, mockSvc.batchSize)
	assert.Equal(t, "beta", mockSvc.received["b.txt"])
}

func TestUploadHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("serves attachment", func(t *testing.T) {
		dir := t.TempDir()
		stored := filepath.Join(dir, "stored.txt")
		require.NoError(t, os.WriteFile(stored, []byte("hello"), 0o600))
		handler := NewUploadHandler(&uploadServiceMock{target: &service.DownloadTarget{Path: stored, Filename: "notes.txt"}})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/uploads/download?token=abc", nil)

		handler.Download(c)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")
	})

	t.Run("rejected token", func(t *testing.T) {
		handler := NewUploadHandler(&uploadServiceMock{resolveErr: appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/uploads/download?token=forged", nil)

		handler.Download(c)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestFormTags(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req := multipartRequest(t, "/study-materials", nil, map[string]string{"tags": "calculus, limits ,,exam"})
	c, _ := uploadContext(req)

	assert.Equal(t, []string{"calculus", "limits", "exam"}, formTags(c))
}
