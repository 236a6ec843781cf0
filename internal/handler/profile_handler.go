package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, caller service.Caller) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Create(ctx context.Context, caller service.Caller, req models.ProfileRequest) (*models.Profile, error)
	Update(ctx context.Context, caller service.Caller, req models.ProfileRequest) (*models.Profile, error)
	Delete(ctx context.Context, caller service.Caller) error
}

// ProfileHandler serves the caller's profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get godoc
// @Summary Own profile
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profiles [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// GetByUser godoc
// @Summary Public profile of a user
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profiles/{userId} [get]
func (h *ProfileHandler) GetByUser(c *gin.Context) {
	profile, err := h.service.GetByUserID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Create godoc
// @Summary Create profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ProfileRequest true "Profile"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /profiles [post]
func (h *ProfileHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.ProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// Update godoc
// @Summary Update profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ProfileRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profiles [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.ProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.service.Update(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Delete godoc
// @Summary Delete profile
// @Tags Profiles
// @Security BearerAuth
// @Success 204 {object} response.Envelope
// @Router /profiles [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
