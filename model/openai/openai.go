// Package openai implements model.Generator using the OpenAI Chat
// Completions API. It adapts the normalized Request/Reply structures into the
// SDK's message format and back, and normalizes 429 responses into
// model.RateLimitError so the dispatch queue can apply its retry policy.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rids-cl/webchat/model"
)

// Options configure the OpenAI model adapter.
type Options struct {
	// Model is the chat completion model id.
	Model string
	// FrequencyPenalty discourages verbatim repetition across a session.
	FrequencyPenalty float64
	// APIKey overrides the SDK's environment lookup when set.
	APIKey string
}

// Model wraps the OpenAI Chat Completions API behind model.Generator.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. The SDK's
// built-in retries are disabled: retry policy belongs to the dispatch queue.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:            "gpt-4.1-mini",
		FrequencyPenalty: 0.2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:            "gpt-4.1-mini",
		FrequencyPenalty: 0.2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Generator.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Reply, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req.Messages),
		Model:               m.opts.Model,
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(req.MaxTokens),
		FrequencyPenalty:    openai.Float(m.opts.FrequencyPenalty),
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Reply{}, normalizeError(err)
	}

	if len(resp.Choices) == 0 {
		return model.Reply{}, &model.DecodeError{Provider: "openai", Reason: "no choices in response"}
	}
	ch0 := resp.Choices[0]
	text := strings.TrimSpace(ch0.Message.Content)
	if text == "" {
		return model.Reply{}, &model.DecodeError{Provider: "openai", Reason: "empty completion text"}
	}

	return model.Reply{
		Text:             text,
		FinishReason:     ch0.FinishReason,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai"}
}

// buildMessages converts normalized messages into OpenAI chat messages.
func buildMessages(msgs []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// normalizeError maps SDK errors onto the model package's failure classes.
// 429 responses become *model.RateLimitError carrying the advisory delay from
// the Retry-After header or, failing that, a best-effort hint parsed from the
// error body.
func normalizeError(err error) error {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return fmt.Errorf("openai: api error: %w", err)
	}
	if apierr.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("openai: unexpected status %d: %w", apierr.StatusCode, err)
	}
	return &model.RateLimitError{RetryAfter: retryAfter(apierr), Err: err}
}

func retryAfter(apierr *openai.Error) time.Duration {
	if apierr.Response != nil {
		if header := apierr.Response.Header.Get("Retry-After"); header != "" {
			if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs >= 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	if hint, ok := model.ParseRetryAfterHint(apierr.Error()); ok {
		return hint
	}
	return 0
}
