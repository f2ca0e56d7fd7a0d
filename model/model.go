package model

import (
	"context"
	"fmt"
	"strings"
)

// Message is a single role-tagged entry of the conversation history sent to a
// provider. Role is one of "user", "assistant" or "system".
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request captures the normalized provider input produced by the orchestrator.
type Request struct {
	Instructions string    `json:"instructions"` // System / persona prompt
	Messages     []Message `json:"messages"`     // Role-tagged history, oldest first
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final (non-streaming) provider output.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface the orchestrator needs to drive generation.
// Generate errors propagate to callers unretried; retries are a caller
// concern.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples. A
// canned response is matched against the text of the last request message;
// unmatched prompts get a deterministic echo.
type MockModel struct {
	info      Info
	responses map[string]string
	calls     []Request
	err       error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith makes every subsequent Generate call return err.
func (m *MockModel) FailWith(err error) { m.err = err }

// Calls returns the requests seen so far, in order.
func (m *MockModel) Calls() []Request { return m.calls }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	input := req.Messages[len(req.Messages)-1].Text
	full := m.responses[input]
	if full == "" {
		for prompt, response := range m.responses {
			if strings.Contains(input, prompt) {
				full = response
				break
			}
		}
	}
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", input)
	}
	return &Response{Text: full, FinishReason: "stop"}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
