package assistant

import (
	"context"
	"fmt"

	"github.com/rids-cl/webchat/dispatch"
	"github.com/rids-cl/webchat/extract"
	"github.com/rids-cl/webchat/logging"
	"github.com/rids-cl/webchat/model"
	"github.com/rids-cl/webchat/session"
)

const (
	// DefaultTemperature keeps replies factual rather than creative.
	DefaultTemperature = 0.2
	// DefaultMaxOutputTokens bounds reply length.
	DefaultMaxOutputTokens = 320
	// DefaultPromptCharBudget bounds how much transcript text is resent.
	DefaultPromptCharBudget = 6000
)

// TurnContext carries everything the prompt builder needs for one turn.
type TurnContext struct {
	UserText           string
	Channel            string
	Turns              int
	Facts              extract.Facts
	Transcript         []session.TranscriptItem
	LastUserMessage    string
	LastAssistantReply string
}

// Options configure a Client.
type Options struct {
	// Temperature is the sampling temperature sent upstream.
	Temperature float64
	// MaxOutputTokens is the maximum-output-token bound sent upstream.
	MaxOutputTokens int64
	// PromptCharBudget bounds the windowed transcript in characters.
	PromptCharBudget int
	// Logger receives per-call diagnostics.
	Logger logging.Logger
}

// Client builds prompts and issues upstream calls through the dispatch
// queue. On failure it returns an explicit error, never a silent empty
// reply, so the orchestrator can choose a user-facing fallback.
type Client struct {
	gen   model.Generator
	queue *dispatch.Queue
	opts  Options
}

// NewClient constructs a Client over the given generator and queue.
func NewClient(gen model.Generator, queue *dispatch.Queue, optFns ...func(o *Options)) *Client {
	opts := Options{
		Temperature:      DefaultTemperature,
		MaxOutputTokens:  DefaultMaxOutputTokens,
		PromptCharBudget: DefaultPromptCharBudget,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{gen: gen, queue: queue, opts: opts}
}

// Ask produces the assistant's raw reply for one turn. The call is admitted
// by the dispatch queue, which bounds concurrency and absorbs transient
// upstream rate limiting.
func (c *Client) Ask(ctx context.Context, turn TurnContext) (string, error) {
	req := c.buildRequest(turn)

	reply, err := c.queue.Submit(ctx, func(ctx context.Context) (string, error) {
		r, err := c.gen.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return r.Text, nil
	})
	if err != nil {
		info := c.gen.Info()
		c.opts.Logger.Error("upstream call failed",
			"provider", info.Provider, "model", info.Name, "error", err)
		return "", fmt.Errorf("assistant: upstream call failed: %w", err)
	}
	return reply, nil
}
