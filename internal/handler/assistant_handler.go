package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nextstep-api/internal/models"
	"github.com/noah-isme/nextstep-api/pkg/response"
)

type assistantService interface {
	Complete(ctx context.Context, req models.ChatCompletionRequest) (models.ChatCompletionResponse, error)
}

// AssistantHandler proxies chat completions to the configured AI provider.
type AssistantHandler struct {
	service assistantService
}

func NewAssistantHandler(svc assistantService) *AssistantHandler {
	return &AssistantHandler{service: svc}
}

// Complete godoc
// @Summary Chat completion
// @Description Forwards the conversation to the AI provider and returns its completion unchanged
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ChatCompletionRequest true "Conversation"
// @Success 200 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /ai/chat/completions [post]
func (h *AssistantHandler) Complete(c *gin.Context) {
	if _, ok := callerFrom(c); !ok {
		return
	}
	var req models.ChatCompletionRequest
	if !bindJSON(c, &req, "invalid chat payload") {
		return
	}
	res, err := h.service.Complete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
