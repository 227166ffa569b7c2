package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostProcess_RedirectMarkers(t *testing.T) {
	tests := []struct {
		name          string
		reply         string
		turns         int
		wantText      string
		wantDirective Directive
	}{
		{
			name:          "plans marker at start",
			reply:         "[[REDIRECT:PLANES]] Te llevo a los planes.",
			turns:         3,
			wantText:      "Te llevo a los planes.",
			wantDirective: DirectivePlans,
		},
		{
			name:          "services marker with leading whitespace",
			reply:         "  [[REDIRECT:SERVICIOS]] Vamos a servicios.",
			turns:         2,
			wantText:      "Vamos a servicios.",
			wantDirective: DirectiveServices,
		},
		{
			name:          "english services token",
			reply:         "[[REDIRECT:SERVICES]] Claro, aquí están.",
			turns:         2,
			wantText:      "Claro, aquí están.",
			wantDirective: DirectiveServices,
		},
		{
			name:          "about marker",
			reply:         "[[REDIRECT:SOBRE_NOSOTROS]] Esta es nuestra historia.",
			turns:         4,
			wantText:      "Esta es nuestra historia.",
			wantDirective: DirectiveAbout,
		},
		{
			name:          "footer marker",
			reply:         "[[REDIRECT:FOOTER]] Ahí encuentras el contacto.",
			turns:         2,
			wantText:      "Ahí encuentras el contacto.",
			wantDirective: DirectiveFooter,
		},
		{
			name:          "unknown token stripped without directive",
			reply:         "[[REDIRECT:BLOG]] Mira nuestro blog.",
			turns:         2,
			wantText:      "Mira nuestro blog.",
			wantDirective: DirectiveNone,
		},
		{
			name:          "marker mid-text is left alone",
			reply:         "Puedo hacerlo así: [[REDIRECT:PLANES]] cuando quieras.",
			turns:         2,
			wantText:      "Puedo hacerlo así: [[REDIRECT:PLANES]] cuando quieras.",
			wantDirective: DirectiveNone,
		},
		{
			name:          "marker-only reply gets fallback text",
			reply:         "[[REDIRECT:PLANES]]",
			turns:         3,
			wantText:      redirectFallback,
			wantDirective: DirectivePlans,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, directive := PostProcess(tt.reply, tt.turns)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantDirective, directive)
		})
	}
}

func TestPostProcess_GreetingSuppression(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		turns    int
		wantText string
	}{
		{
			name:     "greeting kept on first turn",
			reply:    "¡Hola! Soy RIDSI. ¿En qué te ayudo?",
			turns:    1,
			wantText: "¡Hola! Soy RIDSI. ¿En qué te ayudo?",
		},
		{
			name:     "greeting stripped on later turns",
			reply:    "¡Hola! Soy RIDSI. Los planes parten desde el plan básico.",
			turns:    2,
			wantText: "Los planes parten desde el plan básico.",
		},
		{
			name:     "greeting-only reply becomes continuation fallback",
			reply:    "Hola, soy RIDSI.",
			turns:    5,
			wantText: continuationFallback,
		},
		{
			name:     "self-introduction alone is fully suppressed",
			reply:    "¡Hola! Soy RIDSI, tu asistente virtual.",
			turns:    3,
			wantText: continuationFallback,
		},
		{
			name:     "plain hola without persona name untouched",
			reply:    "Hola de nuevo, aquí va el detalle.",
			turns:    3,
			wantText: "Hola de nuevo, aquí va el detalle.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, directive := PostProcess(tt.reply, tt.turns)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, DirectiveNone, directive)
		})
	}
}

func TestPostProcess_DirectiveBeforeGreeting(t *testing.T) {
	text, directive := PostProcess("[[REDIRECT:PLANES]] ¡Hola! Soy RIDSI. Te muestro los planes.", 4)
	assert.Equal(t, DirectivePlans, directive)
	assert.Equal(t, "Te muestro los planes.", text)
}

func TestPostProcess_EmptyReplyGetsContinuationFallback(t *testing.T) {
	text, directive := PostProcess("   ", 2)
	assert.Equal(t, continuationFallback, text)
	assert.Equal(t, DirectiveNone, directive)
}
