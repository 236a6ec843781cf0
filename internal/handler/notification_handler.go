package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type notificationService interface {
	Create(ctx context.Context, caller service.Caller, req models.CreateNotificationRequest) (*models.Notification, error)
	List(ctx context.Context, caller service.Caller, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error)
	Get(ctx context.Context, caller service.Caller, id string) (*models.Notification, error)
	MarkRead(ctx context.Context, caller service.Caller, id string, req models.UpdateNotificationRequest) (*models.Notification, error)
	MarkAllRead(ctx context.Context, caller service.Caller) (int64, error)
	Delete(ctx context.Context, caller service.Caller, id string) error
	Stats(ctx context.Context, caller service.Caller) (*models.NotificationStats, error)
}

// NotificationHandler serves the caller's inbox.
type NotificationHandler struct {
	service notificationService
}

func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary The caller's notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "Only unread"
// @Param type query string false "Type filter"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	filter := models.NotificationFilter{
		UnreadOnly: queryBool(c, "unread_only", false),
		Type:       models.NotificationType(c.Query("type")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), caller, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Create a notification for the caller
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateNotificationRequest true "Notification"
// @Success 201 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.CreateNotificationRequest
	if !bindJSON(c, &req, "invalid notification payload") {
		return
	}
	n, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, n)
}

// Stats godoc
// @Summary Inbox totals
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/stats/summary [get]
func (h *NotificationHandler) Stats(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// MarkAllRead godoc
// @Summary Mark every notification read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/mark-all-read [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	updated, err := h.service.MarkAllRead(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}

// Get godoc
// @Summary Get a notification
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id} [get]
func (h *NotificationHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	n, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, n, nil)
}

// Update godoc
// @Summary Toggle the read flag
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Param payload body models.UpdateNotificationRequest true "Read flag"
// @Success 200 {object} response.Envelope
// @Router /notifications/{id} [put]
func (h *NotificationHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req models.UpdateNotificationRequest
	if !bindJSON(c, &req, "invalid notification payload") {
		return
	}
	n, err := h.service.MarkRead(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, n, nil)
}

// Delete godoc
// @Summary Delete a notification
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
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
