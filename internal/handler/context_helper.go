package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/middleware"
	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// callerFrom resolves the authenticated caller and writes 401 when absent.
func callerFrom(c *gin.Context) (service.Caller, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Caller{}, false
	}
	return service.CallerFromClaims(claims), true
}

// bindJSON decodes the request body and writes 400 on malformed input.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		size = 20
	}
	return page, size
}

func queryBool(c *gin.Context, key string, fallback bool) bool {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

// sendFile streams a rendered export as an attachment.
func sendFile(c *gin.Context, file *models.ExportFile) {
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
