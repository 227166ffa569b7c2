package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rids-cl/webchat/assistant"
	"github.com/rids-cl/webchat/session"
)

var _ Asker = (*assistant.Client)(nil)

// scriptedAsker returns canned replies or errors without hitting a model.
type scriptedAsker struct {
	reply string
	err   error
	turns []assistant.TurnContext
}

func (a *scriptedAsker) Ask(ctx context.Context, turn assistant.TurnContext) (string, error) {
	a.turns = append(a.turns, turn)
	return a.reply, a.err
}

func newTestOrchestrator(asker Asker, optFns ...func(o *Options)) (*Orchestrator, *session.InMemoryStore) {
	store := session.NewInMemoryStore()
	return NewOrchestrator(store, asker, optFns...), store
}

func TestHandle_RejectsEmptyText(t *testing.T) {
	orch, _ := newTestOrchestrator(&scriptedAsker{reply: "hola"})

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := orch.Handle(context.Background(), Request{Text: text})
		var chatErr *Error
		require.ErrorAs(t, err, &chatErr)
		assert.Equal(t, CodeInvalidInput, chatErr.Code)
	}
}

func TestHandle_GeneratesSessionID(t *testing.T) {
	orch, _ := newTestOrchestrator(&scriptedAsker{reply: "¡Hola!"})

	res, err := orch.Handle(context.Background(), Request{Text: "hola"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.SessionID, "sess_"))
	assert.Equal(t, 1, res.Turns)

	res2, err := orch.Handle(context.Background(), Request{Text: "hola de nuevo"})
	require.NoError(t, err)
	assert.NotEqual(t, res.SessionID, res2.SessionID)
}

func TestHandle_ReusesProvidedSession(t *testing.T) {
	asker := &scriptedAsker{reply: "Claro, te cuento."}
	now := time.Now()
	orch, _ := newTestOrchestrator(asker, func(o *Options) {
		o.Now = func() time.Time { now = now.Add(time.Second); return now }
	})

	res, err := orch.Handle(context.Background(), Request{Text: "hola"})
	require.NoError(t, err)

	res2, err := orch.Handle(context.Background(), Request{SessionID: res.SessionID, Text: "cuéntame más"})
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, res2.SessionID)
	assert.Equal(t, 2, res2.Turns)

	require.Len(t, asker.turns, 2)
	assert.Equal(t, 2, asker.turns[1].Turns)
	require.Len(t, asker.turns[1].Transcript, 2)
	assert.Equal(t, session.SpeakerClient, asker.turns[1].Transcript[0].From)
}

func TestHandle_TruncatesLongText(t *testing.T) {
	asker := &scriptedAsker{reply: "ok"}
	orch, _ := newTestOrchestrator(asker, func(o *Options) {
		o.MaxTextLen = 10
	})

	_, err := orch.Handle(context.Background(), Request{Text: strings.Repeat("ñ", 25)})
	require.NoError(t, err)

	require.Len(t, asker.turns, 1)
	assert.Equal(t, strings.Repeat("ñ", 10), asker.turns[0].UserText)
}

func TestHandle_PacingGate(t *testing.T) {
	asker := &scriptedAsker{reply: "ok"}
	now := time.Now()
	orch, store := newTestOrchestrator(asker, func(o *Options) {
		o.Now = func() time.Time { return now }
	})

	res, err := orch.Handle(context.Background(), Request{Text: "hola"})
	require.NoError(t, err)

	// Second message inside the pacing window is rejected without mutating
	// the session.
	now = now.Add(100 * time.Millisecond)
	_, err = orch.Handle(context.Background(), Request{SessionID: res.SessionID, Text: "y esto"})
	var chatErr *Error
	require.ErrorAs(t, err, &chatErr)
	assert.Equal(t, CodeRateLimited, chatErr.Code)

	sess, err := store.Get(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Turns)

	// After the window the turn is accepted again.
	now = now.Add(DefaultMinInterval)
	res3, err := orch.Handle(context.Background(), Request{SessionID: res.SessionID, Text: "y esto"})
	require.NoError(t, err)
	assert.Equal(t, 2, res3.Turns)
}

func TestHandle_MergesExtractedFacts(t *testing.T) {
	asker := &scriptedAsker{reply: "Gracias por los datos."}
	now := time.Now()
	orch, store := newTestOrchestrator(asker, func(o *Options) {
		o.Now = func() time.Time { now = now.Add(time.Second); return now }
	})

	res, err := orch.Handle(context.Background(), Request{
		Text: "Me llamo Ana, mi correo es ana@acme.cl",
	})
	require.NoError(t, err)

	_, err = orch.Handle(context.Background(), Request{
		SessionID: res.SessionID,
		Text:      "Mi correo es otro@correo.cl y trabajo en Acme Ltda",
	})
	require.NoError(t, err)

	sess, err := store.Get(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.cl", sess.Facts.Email)
	assert.Equal(t, "Ana", sess.Facts.Name)
	assert.Equal(t, "Acme Ltda", sess.Facts.Company)

	require.Len(t, asker.turns, 2)
	assert.Equal(t, "ana@acme.cl", asker.turns[1].Facts.Email)
}

func TestHandle_FallbackOnAssistantFailure(t *testing.T) {
	asker := &scriptedAsker{err: errors.New("boom")}
	orch, store := newTestOrchestrator(asker)

	res, err := orch.Handle(context.Background(), Request{Text: "hola"})
	require.NoError(t, err)
	assert.Equal(t, errorFallback, res.Reply)
	assert.Equal(t, assistant.DirectiveNone, res.Redirect)

	// The turn is still recorded for continuity.
	sess, err := store.Get(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Turns)
	assert.Equal(t, errorFallback, sess.LastAssistantReply)
}

func TestHandle_FallbackOnEmptyReply(t *testing.T) {
	orch, _ := newTestOrchestrator(&scriptedAsker{reply: "   "})

	res, err := orch.Handle(context.Background(), Request{Text: "hola"})
	require.NoError(t, err)
	assert.Equal(t, emptyFallback, res.Reply)
}

func TestHandle_PassesThroughRedirect(t *testing.T) {
	orch, store := newTestOrchestrator(&scriptedAsker{
		reply: "[[REDIRECT:PLANES]] Te llevo a los planes.",
	})

	res, err := orch.Handle(context.Background(), Request{Text: "sí, llévame"})
	require.NoError(t, err)
	assert.Equal(t, assistant.DirectivePlans, res.Redirect)
	assert.Equal(t, "Te llevo a los planes.", res.Reply)

	sess, err := store.Get(res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Te llevo a los planes.", sess.LastAssistantReply)
}

func TestHandle_DefaultsChannel(t *testing.T) {
	asker := &scriptedAsker{reply: "ok"}
	orch, _ := newTestOrchestrator(asker)

	_, err := orch.Handle(context.Background(), Request{Text: "hola", Channel: "widget"})
	require.NoError(t, err)
	_, err = orch.Handle(context.Background(), Request{Text: "hola"})
	require.NoError(t, err)

	require.Len(t, asker.turns, 2)
	assert.Equal(t, "widget", asker.turns[0].Channel)
	assert.Equal(t, DefaultChannel, asker.turns[1].Channel)
}
