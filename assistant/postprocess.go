package assistant

import (
	"regexp"
	"strings"
)

// Directive is the frontend navigation key derived from a redirect marker.
type Directive string

// Directive values map to the sections the frontend can scroll to.
const (
	DirectiveNone     Directive = ""
	DirectivePlans    Directive = "planes"
	DirectiveServices Directive = "servicios"
	DirectiveAbout    Directive = "sobreNosotros"
	DirectiveFooter   Directive = "footer"
)

// redirectMarkerRe matches a single redirect marker at the very start of a
// reply, with optional surrounding whitespace. Markers anywhere else in the
// text are deliberately left alone.
var redirectMarkerRe = regexp.MustCompile(`^\s*\[\[REDIRECT:([A-Z_]+)\]\]\s*`)

// greetingRe matches the assistant re-introducing itself at the start of a
// reply, which reads oddly after the first turn.
var greetingRe = regexp.MustCompile(`(?i)^\s*¡?hola[^.\n]*ridsi[^.\n]*[.!]?\s*`)

const (
	redirectFallback     = "Perfecto, te llevo a esa sección para que veas más detalle."
	continuationFallback = "Entiendo, cuéntame un poco más para poder ayudarte mejor."
)

// directiveForToken resolves a marker token to a frontend key. Unknown
// tokens yield DirectiveNone; the marker is still stripped so raw protocol
// text never reaches the user.
func directiveForToken(token string) Directive {
	switch token {
	case "PLANES":
		return DirectivePlans
	case "SERVICIOS", "SERVICES":
		return DirectiveServices
	case "SOBRE_NOSOTROS":
		return DirectiveAbout
	case "FOOTER":
		return DirectiveFooter
	default:
		return DirectiveNone
	}
}

// PostProcess cleans a raw model reply for delivery. It extracts and strips
// a leading redirect marker, then suppresses repeated self-introductions on
// later turns. A fallback line substitutes for replies the passes leave
// empty, so callers always receive displayable text.
func PostProcess(reply string, turns int) (string, Directive) {
	text := strings.TrimSpace(reply)
	directive := DirectiveNone

	if m := redirectMarkerRe.FindStringSubmatch(text); m != nil {
		directive = directiveForToken(m[1])
		text = strings.TrimSpace(redirectMarkerRe.ReplaceAllString(text, ""))
		if text == "" {
			text = redirectFallback
		}
	}

	if turns > 1 {
		text = strings.TrimSpace(greetingRe.ReplaceAllString(text, ""))
	}

	if text == "" {
		text = continuationFallback
	}
	return text, directive
}
