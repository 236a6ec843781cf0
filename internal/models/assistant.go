package models

// ChatMessage is one role-tagged turn sent to the assistant.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required,max=20000"`
}

// ChatCompletionRequest is forwarded to the upstream chat completion API.
type ChatCompletionRequest struct {
	Messages    []ChatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
	Model       string        `json:"model,omitempty" validate:"omitempty,max=100"`
	Temperature *float64      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int          `json:"max_tokens,omitempty" validate:"omitempty,min=1,max=8192"`
}

// ChatCompletionResponse is the upstream completion object, passed through verbatim.
type ChatCompletionResponse map[string]interface{}
