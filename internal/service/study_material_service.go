package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
	"github.com/noah-isme/nextstep-api/pkg/storage"
)

const (
	materialsDir          = "materials"
	popularSubjectsLimit  = 10
	materialTokenCategory = "material:"
)

type studyMaterialRepository interface {
	Create(ctx context.Context, m *models.StudyMaterial) error
	FindByID(ctx context.Context, id string) (*models.StudyMaterial, error)
	List(ctx context.Context, filter models.StudyMaterialFilter) ([]models.StudyMaterial, int, error)
	Approve(ctx context.Context, id, approverID string) (*models.StudyMaterial, error)
	Delete(ctx context.Context, id string) error
	RecordDownload(ctx context.Context, materialID, userID string, check func(*models.StudyMaterial) error) (*models.StudyMaterial, error)
	Rate(ctx context.Context, rating *models.StudyMaterialRating, check func(*models.StudyMaterial) error) (*models.StudyMaterial, error)
	ListRatings(ctx context.Context, materialID string, page, pageSize int) ([]models.StudyMaterialRating, int, error)
	Stats(ctx context.Context) (*models.StudyMaterialStats, error)
	PopularSubjects(ctx context.Context, limit int) ([]models.SubjectPopularity, error)
}

// StudyMaterialConfig bounds material uploads.
type StudyMaterialConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	// DownloadPath is the route that serves signed tokens, e.g. /api/v1/study-materials/files/download.
	DownloadPath string
}

// StudyMaterialService shares course materials with moderation, downloads
// and ratings.
type StudyMaterialService struct {
	repo      studyMaterialRepository
	store     fileStore
	signer    urlSigner
	cache     *CacheService
	cfg       StudyMaterialConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudyMaterialService constructs the service. cache may be nil.
func NewStudyMaterialService(repo studyMaterialRepository, store fileStore, signer urlSigner, cache *CacheService, cfg StudyMaterialConfig, validate *validator.Validate, logger *zap.Logger) *StudyMaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudyMaterialService{repo: repo, store: store, signer: signer, cache: cache, cfg: cfg, validator: validate, logger: logger}
}

// Upload stores a material file and its metadata. Materials uploaded by
// alumni are approved immediately.
func (s *StudyMaterialService) Upload(ctx context.Context, caller Caller, req models.UploadMaterialRequest, file FileUpload) (*models.StudyMaterial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid material payload")
	}
	ext, err := checkExtension(file.Filename, s.cfg.AllowedExtensions)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	rel := path.Join(materialsDir, id+ext)
	size, err := saveFile(s.store, rel, file, s.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	m := &models.StudyMaterial{
		ID:          id,
		UploaderID:  caller.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		SubjectCode: req.SubjectCode,
		SubjectName: req.SubjectName,
		FileName:    path.Base(file.Filename),
		FilePath:    rel,
		FileSize:    size,
		FileType:    strings.TrimPrefix(ext, "."),
		Tags:        models.StringList(req.Tags),
		IsApproved:  caller.Role == models.RoleAlumni,
	}
	if m.Tags == nil {
		m.Tags = models.StringList{}
	}
	if m.IsApproved {
		approvedAt := time.Now().UTC()
		m.ApprovedBy = &caller.ID
		m.ApprovedAt = &approvedAt
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if delErr := s.store.Delete(rel); delErr != nil {
			s.logger.Warn("orphaned material file", zap.String("path", rel), zap.Error(delErr))
		}
		return nil, internalError(err, "failed to create material")
	}
	s.invalidateStats(ctx)
	return m, nil
}

// List returns materials visible to the caller. Without approved_only,
// alumni see everything and other users see approved materials plus their own.
func (s *StudyMaterialService) List(ctx context.Context, caller Caller, filter models.StudyMaterialFilter) ([]models.StudyMaterial, *models.Pagination, error) {
	filter.ViewerID = caller.ID
	filter.IncludeAll = caller.Role == models.RoleAlumni
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list materials")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a material. Unapproved materials are visible to the uploader and alumni.
func (s *StudyMaterialService) Get(ctx context.Context, caller Caller, id string) (*models.StudyMaterial, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsApproved && m.UploaderID != caller.ID && caller.Role != models.RoleAlumni {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "material is awaiting approval")
	}
	return m, nil
}

func (s *StudyMaterialService) find(ctx context.Context, id string) (*models.StudyMaterial, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "material", "", "failed to load material")
	}
	return m, nil
}

// Download records a download and returns a signed, expiring link to the file.
func (s *StudyMaterialService) Download(ctx context.Context, caller Caller, id string) (*models.DownloadTicket, error) {
	m, err := s.repo.RecordDownload(ctx, id, caller.ID, requireApproved)
	if err != nil {
		return nil, storeError(err, "material", "", "failed to record download")
	}
	token, expires, err := s.signer.Generate(materialTokenCategory+m.ID, m.FilePath)
	if err != nil {
		return nil, internalError(err, "failed to sign download link")
	}
	s.invalidateStats(ctx)
	return &models.DownloadTicket{
		MaterialID:    m.ID,
		FileName:      m.FileName,
		DownloadURL:   s.cfg.DownloadPath + "?token=" + url.QueryEscape(token),
		ExpiresAt:     expires.UTC(),
		DownloadCount: m.DownloadCount,
	}, nil
}

// ResolveDownload verifies a material download token.
func (s *StudyMaterialService) ResolveDownload(ctx context.Context, token string) (*DownloadTarget, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, linkError(err)
	}
	id, ok := strings.CutPrefix(claims.Subject, materialTokenCategory)
	if !ok {
		return nil, linkError(storage.ErrTokenInvalid)
	}
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.FilePath != claims.Path {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download token does not match material")
	}
	return resolveStored(s.store, claims.Path, m.FileName)
}

// Rate stores the caller's rating and refreshes the material's aggregate.
func (s *StudyMaterialService) Rate(ctx context.Context, caller Caller, id string, req models.RateMaterialRequest) (*models.StudyMaterial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "rating must be between 1 and 5")
	}
	rating := &models.StudyMaterialRating{MaterialID: id, UserID: caller.ID, Rating: req.Rating, Review: req.Review}
	m, err := s.repo.Rate(ctx, rating, requireApproved)
	if err != nil {
		return nil, storeError(err, "material", "", "failed to rate material")
	}
	s.invalidateStats(ctx)
	return m, nil
}

func requireApproved(m *models.StudyMaterial) error {
	if !m.IsApproved {
		return invalidState("material is awaiting approval")
	}
	return nil
}

// ListRatings returns the ratings of a material.
func (s *StudyMaterialService) ListRatings(ctx context.Context, caller Caller, id string, page, pageSize int) ([]models.StudyMaterialRating, *models.Pagination, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListRatings(ctx, id, page, pageSize)
	if err != nil {
		return nil, nil, internalError(err, "failed to list ratings")
	}
	return items, pagination(page, pageSize, total), nil
}

// Approve publishes a pending material. Alumni only.
func (s *StudyMaterialService) Approve(ctx context.Context, caller Caller, id string) (*models.StudyMaterial, error) {
	if err := RoleEquals(caller, models.RoleAlumni); err != nil {
		return nil, err
	}
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.IsApproved {
		return nil, invalidState("material is already approved")
	}
	approved, err := s.repo.Approve(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invalidState("material is already approved")
		}
		return nil, internalError(err, "failed to approve material")
	}
	s.invalidateStats(ctx)
	return approved, nil
}

// Delete removes a material. The uploader and alumni may delete; the file is
// removed best-effort.
func (s *StudyMaterialService) Delete(ctx context.Context, caller Caller, id string) error {
	m, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if m.UploaderID != caller.ID && caller.Role != models.RoleAlumni {
		return appErrors.Clone(appErrors.ErrForbidden, "only the uploader or alumni may delete this material")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "material", "", "failed to delete material")
	}
	if err := s.store.Delete(m.FilePath); err != nil {
		s.logger.Warn("material file not removed", zap.String("material_id", id), zap.Error(err))
	}
	s.invalidateStats(ctx)
	return nil
}

// Stats summarises the catalogue.
func (s *StudyMaterialService) Stats(ctx context.Context) (*models.StudyMaterialStats, error) {
	stats, err := cached(ctx, s.cache, cacheKeyMaterialStats, s.repo.Stats)
	if err != nil {
		return nil, internalError(err, "failed to load material stats")
	}
	return stats, nil
}

// PopularSubjects ranks subjects by downloads.
func (s *StudyMaterialService) PopularSubjects(ctx context.Context) ([]models.SubjectPopularity, error) {
	subjects, err := cached(ctx, s.cache, cacheKeyPopularSubjects, func(ctx context.Context) ([]models.SubjectPopularity, error) {
		return s.repo.PopularSubjects(ctx, popularSubjectsLimit)
	})
	if err != nil {
		return nil, internalError(err, "failed to load popular subjects")
	}
	return subjects, nil
}

func (s *StudyMaterialService) invalidateStats(ctx context.Context) {
	s.cache.Forget(ctx, cacheKeyMaterialStats, cacheKeyPopularSubjects)
}
