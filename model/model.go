package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem carries operating instructions for the assistant.
	RoleSystem Role = "system"
	// RoleUser carries visitor text.
	RoleUser Role = "user"
	// RoleAssistant carries prior assistant replies.
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a chat-style request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request captures the normalized model input produced by the assistant layer.
type Request struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int64     `json:"max_tokens"`
}

// Reply is the decoded result of one successful generation.
type Reply struct {
	Text             string `json:"text"`
	FinishReason     string `json:"finish_reason"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Generator is the minimal interface required to drive one generation.
// Implementations must return typed errors for normalized failure classes:
// *RateLimitError for upstream throttling and *DecodeError for replies that
// could not be interpreted.
type Generator interface {
	Generate(ctx context.Context, req Request) (Reply, error)

	// Info returns information about the model implementation.
	Info() Info
}

// RateLimitError signals that the upstream rejected a call for rate-limiting
// reasons. RetryAfter carries the provider's advisory delay when one could be
// extracted from the response; zero means no hint was available.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("model: rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("model: rate limited: %v", e.Err)
}

// Unwrap returns the wrapped provider error.
func (e *RateLimitError) Unwrap() error { return e.Err }

// DecodeError reports a provider reply that could not be interpreted
// (no choices, empty text, unexpected shape). Never retried.
type DecodeError struct {
	Provider string
	Reason   string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("model: %s reply could not be decoded: %s", e.Provider, e.Reason)
}

// Mock is a lightweight in-memory Generator useful for tests.
// Canned replies are keyed on the content of the last request message;
// unmatched input yields a deterministic default. Errors can be scripted per
// call via FailWith, consumed in FIFO order before any reply is produced.
type Mock struct {
	mu       sync.Mutex
	info     Info
	replies  map[string]string
	failures []error
	requests []Request
}

// NewMock constructs a Mock generator.
func NewMock() *Mock {
	return &Mock{
		info:    Info{Name: "mock", Provider: "mock"},
		replies: make(map[string]string),
	}
}

// AddReply registers a deterministic canned completion for an input text.
func (m *Mock) AddReply(input, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[input] = reply
}

// FailWith queues an error to be returned by the next Generate call.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, err)
}

// Requests returns all requests seen so far, in call order.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Generator.
func (m *Mock) Generate(ctx context.Context, req Request) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		m.mu.Unlock()
		return Reply{}, err
	}
	var input string
	if len(req.Messages) > 0 {
		input = req.Messages[len(req.Messages)-1].Content
	}
	text, ok := m.replies[input]
	m.mu.Unlock()

	if !ok {
		text = "Mock reply to: " + strings.TrimSpace(input)
	}
	return Reply{Text: text, FinishReason: "stop"}, nil
}

// Info implements Generator.
func (m *Mock) Info() Info { return m.info }
