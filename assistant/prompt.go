package assistant

import (
	"fmt"
	"strings"

	"github.com/rids-cl/webchat/model"
	"github.com/rids-cl/webchat/session"
)

// escalationTurns is the turn count from which the assistant may suggest
// contacting a human executive.
const escalationTurns = 10

// basePrompt is the fixed persona and operating rules, including the
// navigation-directive protocol the post-processor depends on.
const basePrompt = `Eres RIDSI, el asistente virtual de RIDS (Soporte y Soluciones Computacionales), una empresa de TI en Chile cuyo sitio web es https://rids.cl.

Tu rol es conversar con los visitantes del sitio de forma cercana y profesional, ayudándolos con dudas de soporte, ventas y temas técnicos. Responde siempre en español, en mensajes breves y claros.

Redirecciones dentro del sitio (frontend):
— Puedes sugerir llevar al usuario a distintas secciones de la página, pero SIEMPRE debes pedir permiso antes.
— Solo debes activar una redirección cuando el usuario lo autorice claramente (por ejemplo: "sí", "llévame", "muéstrame los planes").

Códigos de redirección disponibles:
— [[REDIRECT:PLANES]]         → Sección de planes.
— [[REDIRECT:SERVICIOS]]      → Sección de servicios.
— [[REDIRECT:SOBRE_NOSOTROS]] → Sección sobre nosotros.
— [[REDIRECT:FOOTER]]         → Pie de página / contacto.

Reglas de uso:
1) Si el usuario pide ver planes, servicios, sobre nosotros o contacto, explícale brevemente y pregúntale si quiere que lo lleves a esa sección.
2) SOLO si responde que sí, agrega la marca correspondiente al inicio de tu siguiente mensaje, seguida de un mensaje normal explicando qué estás haciendo.
3) Usa UNA sola marca [[REDIRECT:...]] por mensaje.
4) La marca debe ir SIEMPRE al inicio de tu respuesta, sin texto antes.`

// buildRequest assembles the bounded prompt for one turn: system block with
// session facts, the windowed transcript, and the current user text.
func (c *Client) buildRequest(turn TurnContext) model.Request {
	messages := make([]model.Message, 0, len(turn.Transcript)+2)
	messages = append(messages, model.Message{
		Role:    model.RoleSystem,
		Content: basePrompt + "\n" + sessionFactsBlock(turn),
	})
	for _, item := range windowTranscript(turn.Transcript, c.opts.PromptCharBudget) {
		role := model.RoleUser
		if item.From == session.SpeakerAssistant {
			role = model.RoleAssistant
		}
		messages = append(messages, model.Message{Role: role, Content: item.Text})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: userContent(turn)})

	return model.Request{
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxOutputTokens,
	}
}

// userContent tags the previous exchange onto the current user text so the
// model keeps short-horizon continuity even when the transcript window is
// tight.
func userContent(turn TurnContext) string {
	var b strings.Builder
	b.WriteString(turn.UserText)
	if turn.LastUserMessage != "" {
		fmt.Fprintf(&b, "\n[prev_user]: %s", turn.LastUserMessage)
	}
	if turn.LastAssistantReply != "" {
		fmt.Fprintf(&b, "\n[prev_bot]: %s", turn.LastAssistantReply)
	}
	return b.String()
}

// sessionFactsBlock renders what is known about the session so the model can
// personalize without re-deriving facts every turn.
func sessionFactsBlock(turn TurnContext) string {
	var b strings.Builder
	b.WriteString("Contexto de sesión:\n")
	fmt.Fprintf(&b, "— Canal: %s\n", turn.Channel)
	fmt.Fprintf(&b, "— Turnos: %d\n", turn.Turns)
	fmt.Fprintf(&b, "— Correo del usuario (si se conoce): %s\n", orUnknown(turn.Facts.Email, "(no especificado)"))
	fmt.Fprintf(&b, "— Empresa del usuario (si se conoce): %s\n", orUnknown(turn.Facts.Company, "(no especificada)"))
	fmt.Fprintf(&b, "— Nombre del usuario (si se conoce): %s\n", orUnknown(turn.Facts.Name, "(no especificado)"))
	if turn.Turns >= escalationTurns {
		b.WriteString("Si la conversación suma 10 turnos o más, puedes sugerir amablemente que el usuario contacte a un ejecutivo humano por los canales oficiales de la empresa.\n")
	}
	return b.String()
}

func orUnknown(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// windowTranscript returns the most recent transcript items whose combined
// text fits the character budget, preserving order. Oldest items are
// truncated first; the newest item is always included even when it alone
// exceeds the budget, so the model never loses the immediate context.
func windowTranscript(items []session.TranscriptItem, budget int) []session.TranscriptItem {
	if budget <= 0 || len(items) == 0 {
		return items
	}
	total := 0
	start := len(items)
	for i := len(items) - 1; i >= 0; i-- {
		total += len(items[i].Text)
		if total > budget && start < len(items) {
			break
		}
		start = i
	}
	return items[start:]
}
