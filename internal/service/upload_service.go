package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
	"github.com/noah-isme/nextstep-api/pkg/storage"
)

// FileUpload is one file received from a multipart form.
type FileUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
}

// DownloadTarget is a verified signed download.
type DownloadTarget struct {
	Path     string
	Filename string
}

type fileStore interface {
	SaveStream(name string, r io.Reader, limit int64) (int64, error)
	Open(name string) (io.ReadCloser, error)
	Stat(name string) (*storage.FileInfo, error)
	List(dir string) ([]storage.FileInfo, error)
	Delete(name string) error
	Path(name string) (string, error)
}

type urlSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Verify(token string) (storage.LinkClaims, error)
}

type fileMirror interface {
	Upload(ctx context.Context, publicID string, r io.Reader) (string, error)
	Remove(ctx context.Context, publicID string) error
}

// UploadConfig bounds generic uploads.
type UploadConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	MaxBatchFiles     int
	// DownloadPath is the route that serves signed tokens, e.g. /api/v1/uploads/download.
	DownloadPath string
}

// UploadService stores user documents in per-user directories and hands out
// signed download links. Files are optionally mirrored to a CDN.
type UploadService struct {
	store  fileStore
	signer urlSigner
	mirror fileMirror
	cfg    UploadConfig
	logger *zap.Logger
}

// NewUploadService constructs the service. mirror may be nil.
func NewUploadService(store fileStore, signer urlSigner, mirror fileMirror, cfg UploadConfig, logger *zap.Logger) *UploadService {
	if cfg.MaxBatchFiles <= 0 {
		cfg.MaxBatchFiles = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{store: store, signer: signer, mirror: mirror, cfg: cfg, logger: logger}
}

func userDir(userID string) string {
	return path.Join("users", userID)
}

// Upload stores a single file for the caller.
func (s *UploadService) Upload(ctx context.Context, caller Caller, file FileUpload, fileType, description string) (*models.UploadedFile, error) {
	ext, err := checkExtension(file.Filename, s.cfg.AllowedExtensions)
	if err != nil {
		return nil, err
	}
	name := uuid.NewString() + ext
	rel := path.Join(userDir(caller.ID), name)

	size, err := saveFile(s.store, rel, file, s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	out := &models.UploadedFile{
		Filename:     name,
		OriginalName: file.Filename,
		FileType:     fileType,
		Description:  description,
		Size:         size,
		ContentType:  file.ContentType,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.sign(caller.ID, rel, out); err != nil {
		_ = s.store.Delete(rel)
		return nil, err
	}
	out.PublicURL = s.mirrorFile(ctx, caller.ID, rel, name)
	return out, nil
}

// UploadMany stores up to MaxBatchFiles files. Rejected files are reported
// individually and do not fail the batch.
func (s *UploadService) UploadMany(ctx context.Context, caller Caller, files []FileUpload, fileType, description string) (*models.BatchUploadResult, error) {
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}
	if len(files) > s.cfg.MaxBatchFiles {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("maximum %d files allowed at once", s.cfg.MaxBatchFiles))
	}
	result := &models.BatchUploadResult{Uploaded: []models.UploadedFile{}, Failed: []models.UploadFailure{}}
	for _, file := range files {
		uploaded, err := s.Upload(ctx, caller, file, fileType, description)
		if err != nil {
			result.Failed = append(result.Failed, models.UploadFailure{OriginalName: file.Filename, Reason: appErrors.FromError(err).Message})
			continue
		}
		result.Uploaded = append(result.Uploaded, *uploaded)
	}
	return result, nil
}

// List returns the caller's files, newest first.
func (s *UploadService) List(ctx context.Context, caller Caller) ([]models.UploadedFile, error) {
	infos, err := s.store.List(userDir(caller.ID))
	if err != nil {
		return nil, internalError(err, "failed to list files")
	}
	files := make([]models.UploadedFile, 0, len(infos))
	for _, info := range infos {
		f := models.UploadedFile{Filename: info.Name, Size: info.Size, UploadedAt: info.ModifiedAt}
		if err := s.sign(caller.ID, info.Path, &f); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Info returns metadata and a fresh download link for one of the caller's files.
func (s *UploadService) Info(ctx context.Context, caller Caller, filename string) (*models.UploadedFile, error) {
	rel, err := s.ownedPath(caller, filename)
	if err != nil {
		return nil, err
	}
	info, err := s.store.Stat(rel)
	if err != nil {
		return nil, fileError(err)
	}
	f := &models.UploadedFile{Filename: info.Name, Size: info.Size, UploadedAt: info.ModifiedAt}
	if err := s.sign(caller.ID, rel, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes one of the caller's files and its mirror.
func (s *UploadService) Delete(ctx context.Context, caller Caller, filename string) error {
	rel, err := s.ownedPath(caller, filename)
	if err != nil {
		return err
	}
	if _, err := s.store.Stat(rel); err != nil {
		return fileError(err)
	}
	if err := s.store.Delete(rel); err != nil {
		return internalError(err, "failed to delete file")
	}
	if s.mirror != nil {
		if err := s.mirror.Remove(ctx, mirrorID(caller.ID, filename)); err != nil {
			s.logger.Warn("mirror delete failed", zap.String("file", rel), zap.Error(err))
		}
	}
	return nil
}

// ResolveDownload verifies a signed token and returns the file it grants.
func (s *UploadService) ResolveDownload(ctx context.Context, token string) (*DownloadTarget, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, linkError(err)
	}
	if path.Dir(claims.Path) != userDir(claims.Subject) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download token does not match file owner")
	}
	return resolveStored(s.store, claims.Path, path.Base(claims.Path))
}

func (s *UploadService) ownedPath(caller Caller, filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename || strings.HasPrefix(filename, ".") {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid file name")
	}
	return path.Join(userDir(caller.ID), filename), nil
}

func (s *UploadService) sign(owner, rel string, f *models.UploadedFile) error {
	token, expires, err := s.signer.Generate(owner, rel)
	if err != nil {
		return internalError(err, "failed to sign download link")
	}
	f.DownloadURL = s.cfg.DownloadPath + "?token=" + url.QueryEscape(token)
	f.ExpiresAt = expires.UTC()
	return nil
}

// mirrorFile copies the stored file to the CDN and returns its public URL.
// Mirror failures leave the local copy in place.
func (s *UploadService) mirrorFile(ctx context.Context, owner, rel, name string) string {
	if s.mirror == nil {
		return ""
	}
	rc, err := s.store.Open(rel)
	if err != nil {
		s.logger.Warn("mirror open failed", zap.String("file", rel), zap.Error(err))
		return ""
	}
	defer rc.Close()
	publicURL, err := s.mirror.Upload(ctx, mirrorID(owner, name), rc)
	if err != nil {
		s.logger.Warn("mirror upload failed", zap.String("file", rel), zap.Error(err))
		return ""
	}
	return publicURL
}

func mirrorID(owner, name string) string {
	return owner + "_" + strings.TrimSuffix(name, path.Ext(name))
}

// checkExtension returns the lower-cased extension of name when allowed.
func checkExtension(name string, allowed []string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "file has no extension")
	}
	for _, a := range allowed {
		if a == ext {
			return ext, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type not allowed, allowed types: %s", strings.Join(allowed, ", ")))
}

func saveFile(store fileStore, rel string, file FileUpload, limit int64) (int64, error) {
	if limit > 0 && file.Size > limit {
		return 0, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds maximum size of %d bytes", limit))
	}
	size, err := store.SaveStream(rel, file.Content, limit)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return 0, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds maximum size of %d bytes", limit))
		}
		return 0, internalError(err, "failed to store file")
	}
	return size, nil
}

func resolveStored(store fileStore, rel, filename string) (*DownloadTarget, error) {
	if _, err := store.Stat(rel); err != nil {
		return nil, fileError(err)
	}
	full, err := store.Path(rel)
	if err != nil {
		return nil, fileError(err)
	}
	return &DownloadTarget{Path: full, Filename: filename}, nil
}

func linkError(err error) error {
	if errors.Is(err, storage.ErrTokenExpired) {
		return appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "download link has expired")
	}
	return appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
}

func fileError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotExist):
		return appErrors.Clone(appErrors.ErrNotFound, "file not found")
	case errors.Is(err, storage.ErrInvalidPath):
		return appErrors.Clone(appErrors.ErrValidation, "invalid file name")
	default:
		return internalError(err, "failed to access file")
	}
}
