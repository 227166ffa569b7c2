// Package anthropic implements model.Generator using the Anthropic Messages
// API. The original deployment selects its provider at startup; this adapter
// makes "anthropic" a drop-in alternative to the OpenAI one.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/rids-cl/webchat/model"
)

// Options configure the Anthropic model adapter.
type Options struct {
	// Model is the Messages API model id.
	Model string
	// APIKey overrides the SDK's environment lookup when set.
	APIKey string
}

// Model wraps the Anthropic Messages API behind model.Generator.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client. SDK
// retries are disabled so the dispatch queue owns the retry policy.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model: string(anthropic.ModelClaude3_5Haiku20241022),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model: string(anthropic.ModelClaude3_5Haiku20241022),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Generator.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Reply, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.opts.Model),
		Messages:    buildMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system := extractSystemBlocks(req.Messages); len(system) > 0 {
		params.System = system
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.Reply{}, normalizeError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return model.Reply{}, &model.DecodeError{Provider: "anthropic", Reason: "no text blocks in response"}
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}
	return model.Reply{
		Text:             text,
		FinishReason:     finishReason,
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "anthropic"}
}

// buildMessages converts normalized messages to the Anthropic message format.
// System messages are handled separately via extractSystemBlocks.
func buildMessages(msgs []model.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}

func extractSystemBlocks(msgs []model.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range msgs {
		if msg.Role == model.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

// normalizeError maps SDK errors onto the model package's failure classes.
func normalizeError(err error) error {
	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return fmt.Errorf("anthropic: api error: %w", err)
	}
	if apierr.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("anthropic: unexpected status %d: %w", apierr.StatusCode, err)
	}
	return &model.RateLimitError{RetryAfter: retryAfter(apierr), Err: err}
}

func retryAfter(apierr *anthropic.Error) time.Duration {
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
