package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

const (
	defaultChatMaxTokens   = 150
	defaultChatTemperature = 0.7
	upstreamErrorBodyLimit = 512
)

// AssistantConfig points the assistant at an OpenAI compatible chat endpoint.
type AssistantConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AssistantService forwards chat completion requests upstream.
type AssistantService struct {
	client    *http.Client
	cfg       AssistantConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssistantService constructs the service. client may be nil.
func NewAssistantService(cfg AssistantConfig, client *http.Client, validate *validator.Validate, logger *zap.Logger) *AssistantService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{client: client, cfg: cfg, validator: validate, logger: logger}
}

type upstreamContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type upstreamMessage struct {
	Role    string            `json:"role"`
	Content []upstreamContent `json:"content"`
}

type upstreamRequest struct {
	Model       string            `json:"model"`
	Messages    []upstreamMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
}

// Complete sends the conversation upstream and returns the completion verbatim.
func (s *AssistantService) Complete(ctx context.Context, req models.ChatCompletionRequest) (models.ChatCompletionResponse, error) {
	if s.cfg.APIKey == "" || s.cfg.APIURL == "" {
		return nil, appErrors.ErrAIUnavailable
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid chat completion payload")
	}

	payload := upstreamRequest{
		Model:       s.cfg.Model,
		Messages:    make([]upstreamMessage, 0, len(req.Messages)),
		MaxTokens:   defaultChatMaxTokens,
		Temperature: defaultChatTemperature,
	}
	if req.Model != "" {
		payload.Model = req.Model
	}
	if req.MaxTokens != nil {
		payload.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		payload.Temperature = *req.Temperature
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, upstreamMessage{
			Role:    msg.Role,
			Content: []upstreamContent{{Type: "text", Text: msg.Content}},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, internalError(err, "failed to encode chat request")
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, internalError(err, "failed to build chat request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrAITimeout.Code, appErrors.ErrAITimeout.Status, appErrors.ErrAITimeout.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrAIGateway.Code, appErrors.ErrAIGateway.Status, "failed to reach assistant upstream")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.upstreamError(resp)
	}

	var out models.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if isTimeout(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrAITimeout.Code, appErrors.ErrAITimeout.Status, appErrors.ErrAITimeout.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrAIGateway.Code, appErrors.ErrAIGateway.Status, "invalid response from assistant upstream")
	}
	return out, nil
}

func (s *AssistantService) upstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamErrorBodyLimit))
	s.logger.Warn("assistant upstream error", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.ErrAIUpstreamAuth
	case http.StatusTooManyRequests:
		return appErrors.ErrAIRateLimited
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return appErrors.ErrAITimeout
	}

	message := fmt.Sprintf("assistant upstream error: HTTP %d", resp.StatusCode)
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		message = "assistant upstream error: " + envelope.Error.Message
	}
	return appErrors.Clone(appErrors.ErrAIGateway, message)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
