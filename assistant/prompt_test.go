package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rids-cl/webchat/dispatch"
	"github.com/rids-cl/webchat/extract"
	"github.com/rids-cl/webchat/model"
	"github.com/rids-cl/webchat/session"
)

func TestBuildRequest_ShapeAndParameters(t *testing.T) {
	client := NewClient(model.NewMock(), dispatch.New(), func(o *Options) {
		o.Temperature = 0.4
		o.MaxOutputTokens = 128
	})

	req := client.buildRequest(TurnContext{
		UserText: "¿Qué planes tienen?",
		Channel:  "web",
		Turns:    2,
		Transcript: []session.TranscriptItem{
			{From: session.SpeakerClient, Text: "Hola"},
			{From: session.SpeakerAssistant, Text: "¡Hola! ¿En qué te ayudo?"},
		},
	})

	require.Len(t, req.Messages, 4)
	assert.Equal(t, model.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, model.RoleUser, req.Messages[1].Role)
	assert.Equal(t, "Hola", req.Messages[1].Content)
	assert.Equal(t, model.RoleAssistant, req.Messages[2].Role)
	assert.Equal(t, model.RoleUser, req.Messages[3].Role)
	assert.Equal(t, "¿Qué planes tienen?", req.Messages[3].Content)

	assert.Equal(t, 0.4, req.Temperature)
	assert.Equal(t, int64(128), req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, "RIDSI")
	assert.Contains(t, req.Messages[0].Content, "[[REDIRECT:PLANES]]")
}

func TestBuildRequest_TagsPreviousExchange(t *testing.T) {
	client := NewClient(model.NewMock(), dispatch.New())

	req := client.buildRequest(TurnContext{
		UserText:           "¿Y el precio?",
		Channel:            "web",
		Turns:              2,
		LastUserMessage:    "Háblame de los planes",
		LastAssistantReply: "Tenemos tres planes.",
	})

	require.Len(t, req.Messages, 2)
	last := req.Messages[1].Content
	assert.Equal(t, "¿Y el precio?\n[prev_user]: Háblame de los planes\n[prev_bot]: Tenemos tres planes.", last)

	// Without a previous exchange the user text is sent untouched.
	req = client.buildRequest(TurnContext{UserText: "hola", Turns: 1})
	assert.Equal(t, "hola", req.Messages[len(req.Messages)-1].Content)
}

func TestSessionFactsBlock(t *testing.T) {
	t.Run("known facts are rendered", func(t *testing.T) {
		block := sessionFactsBlock(TurnContext{
			Channel: "web",
			Turns:   3,
			Facts: extract.Facts{
				Email:   "ana@acme.cl",
				Company: "Acme Ltda",
				Name:    "Ana",
			},
		})
		assert.Contains(t, block, "ana@acme.cl")
		assert.Contains(t, block, "Acme Ltda")
		assert.Contains(t, block, "Ana")
		assert.Contains(t, block, "Turnos: 3")
		assert.NotContains(t, block, "ejecutivo humano")
	})

	t.Run("missing facts fall back to placeholders", func(t *testing.T) {
		block := sessionFactsBlock(TurnContext{Channel: "web", Turns: 1})
		assert.Contains(t, block, "(no especificado)")
		assert.Contains(t, block, "(no especificada)")
	})

	t.Run("escalation hint appears from the tenth turn", func(t *testing.T) {
		block := sessionFactsBlock(TurnContext{Channel: "web", Turns: escalationTurns})
		assert.Contains(t, block, "ejecutivo humano")
	})
}

func TestWindowTranscript(t *testing.T) {
	items := []session.TranscriptItem{
		{From: session.SpeakerClient, Text: strings.Repeat("a", 50)},
		{From: session.SpeakerAssistant, Text: strings.Repeat("b", 50)},
		{From: session.SpeakerClient, Text: strings.Repeat("c", 50)},
	}

	t.Run("everything fits", func(t *testing.T) {
		got := windowTranscript(items, 200)
		assert.Len(t, got, 3)
	})

	t.Run("oldest items are dropped first", func(t *testing.T) {
		got := windowTranscript(items, 100)
		require.Len(t, got, 2)
		assert.Equal(t, items[1].Text, got[0].Text)
		assert.Equal(t, items[2].Text, got[1].Text)
	})

	t.Run("newest item survives even over budget", func(t *testing.T) {
		got := windowTranscript(items, 10)
		require.Len(t, got, 1)
		assert.Equal(t, items[2].Text, got[0].Text)
	})

	t.Run("zero budget disables windowing", func(t *testing.T) {
		got := windowTranscript(items, 0)
		assert.Len(t, got, 3)
	})
}
