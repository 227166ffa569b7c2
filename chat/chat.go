package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/rids-cl/webchat/assistant"
	"github.com/rids-cl/webchat/extract"
	"github.com/rids-cl/webchat/logging"
	"github.com/rids-cl/webchat/session"
)

const (
	// DefaultMaxTextLen is the rune bound applied to incoming messages.
	DefaultMaxTextLen = 1200
	// DefaultMinInterval is the pacing gate between turns of one session.
	DefaultMinInterval = 400 * time.Millisecond
	// DefaultChannel labels turns that arrive without an explicit channel.
	DefaultChannel = "web"
)

// Fallback lines shown when the assistant cannot produce usable text.
const (
	errorFallback = "Tuve un problema procesando tu mensaje 😓. ¿Podemos intentarlo de nuevo en unos instantes?"
	emptyFallback = "Por ahora no puedo responder bien tu mensaje, pero puedes escribir a soporte@rids.cl 😊"
)

// Request is one inbound visitor message.
type Request struct {
	SessionID string
	Text      string
	Channel   string
}

// Result is the outcome of one accepted turn.
type Result struct {
	SessionID string
	Reply     string
	Turns     int
	Redirect  assistant.Directive
}

// Asker is the assistant surface the orchestrator depends on.
type Asker interface {
	Ask(ctx context.Context, turn assistant.TurnContext) (string, error)
}

// Options configure an Orchestrator.
type Options struct {
	// MaxTextLen is the rune bound applied to incoming text.
	MaxTextLen int
	// MinInterval is the minimum gap between accepted turns per session.
	MinInterval time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
	// Logger receives per-turn diagnostics.
	Logger logging.Logger
}

// Orchestrator runs one chat turn end to end against an injected session
// store and assistant client.
type Orchestrator struct {
	store session.Store
	ask   Asker
	opts  Options
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(store session.Store, ask Asker, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxTextLen:  DefaultMaxTextLen,
		MinInterval: DefaultMinInterval,
		Now:         time.Now,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{store: store, ask: ask, opts: opts}
}

// Handle processes one visitor message and returns the assistant's reply.
//
// Rejections (empty text, pacing violations) leave the session untouched.
// Assistant failures do not fail the turn: the visitor receives a fallback
// line and the turn is recorded so continuity survives upstream outages.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (Result, error) {
	start := o.opts.Now()
	callID := uuid.NewString()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Result{}, invalidInput("El mensaje está vacío")
	}
	text = truncateRunes(text, o.opts.MaxTextLen)

	channel := req.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = "sess_" + ulid.Make().String()
	}

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return Result{}, internal("session lookup failed", err)
	}

	if !sess.LastActivityAt.IsZero() && start.Sub(sess.LastActivityAt) < o.opts.MinInterval {
		return Result{}, rateLimited("Demasiadas solicitudes seguidas, intenta nuevamente en unos segundos.")
	}

	turns := sess.Turns + 1
	facts := sess.Facts.Merge(extract.FromText(text))

	rawReply, askErr := o.ask.Ask(ctx, assistant.TurnContext{
		UserText:           text,
		Channel:            channel,
		Turns:              turns,
		Facts:              facts,
		Transcript:         sess.Transcript,
		LastUserMessage:    sess.LastUserMessage,
		LastAssistantReply: sess.LastAssistantReply,
	})
	if askErr != nil {
		o.opts.Logger.Error("assistant call failed",
			"call", callID, "session", sessionID, "turns", turns, "error", askErr)
		rawReply = errorFallback
	} else if strings.TrimSpace(rawReply) == "" {
		rawReply = emptyFallback
	}

	reply, redirect := assistant.PostProcess(rawReply, turns)

	if err := o.store.RecordTurn(sessionID, session.Turn{
		ClientText:    text,
		AssistantText: reply,
		Facts:         facts,
		At:            start,
	}); err != nil {
		return Result{}, internal("recording turn failed", err)
	}

	o.opts.Logger.Info("turn completed",
		"call", callID,
		"session", sessionID,
		"turns", turns,
		"redirect", string(redirect),
		"latency", o.opts.Now().Sub(start).String())

	return Result{
		SessionID: sessionID,
		Reply:     reply,
		Turns:     turns,
		Redirect:  redirect,
	}, nil
}

// truncateRunes bounds text to max runes without splitting a code point.
func truncateRunes(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
