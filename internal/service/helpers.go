package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/repository"
	"github.com/noah-isme/nextstep-api/pkg/database"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// storeError maps a repository error. Typed errors returned by guard closures
// pass through, missing rows become NotFound and duplicates become Conflict.
func storeError(err error, resource, conflictMsg, internalMsg string) error {
	var typed *appErrors.Error
	switch {
	case errors.As(err, &typed):
		return typed
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	case errors.Is(err, repository.ErrDuplicate), database.IsUniqueViolation(err):
		return appErrors.Clone(appErrors.ErrConflict, conflictMsg)
	default:
		return internalError(err, internalMsg)
	}
}

func invalidState(message string) error {
	return appErrors.Clone(appErrors.ErrInvalidState, message)
}

func pagination(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
