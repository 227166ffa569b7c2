// Package extract derives contact facts (email, company, person name) from
// free-text chat turns using lightweight pattern heuristics. Extraction is
// total and side-effect free: absence of a match yields the zero value, never
// an error. The phrase patterns target the Spanish introductions visitors
// actually type ("mi empresa es…", "me llamo…", "soy…").
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)

	// Ordered by priority; the first matching pattern wins.
	companyRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:mi\s+empresa\s+es|la\s+empresa\s+es|somos\s+de|soy\s+de|trabajo\s+en|de\s+la\s+empresa)\s+([a-z0-9áéíóúüñ .&_-]{2,80})`),
	}
	nameRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:me\s+llamo|mi\s+nombre\s+es|soy)\s+([a-záéíóúüñ ]{2,40})`),
	}
)

// Facts holds the contact details known for a session. Zero values mean unknown.
type Facts struct {
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Merge returns f with any unset field filled from other. Fields already set
// in f are never overwritten (first write wins).
func (f Facts) Merge(other Facts) Facts {
	if f.Email == "" {
		f.Email = other.Email
	}
	if f.Company == "" {
		f.Company = other.Company
	}
	if f.Name == "" {
		f.Name = other.Name
	}
	return f
}

// Empty reports whether no fact is known.
func (f Facts) Empty() bool {
	return f == Facts{}
}

// FromText inspects a single turn and returns whichever facts it mentions.
func FromText(text string) Facts {
	return Facts{
		Email:   Email(text),
		Company: Company(text),
		Name:    Name(text),
	}
}

// Email returns the first email-shaped substring of text, or "".
func Email(text string) string {
	return emailRe.FindString(text)
}

// Company returns the company mentioned through an introductory phrase, or "".
func Company(text string) string {
	for _, re := range companyRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return trimTail(m[1])
		}
	}
	return ""
}

// Name returns the visitor name mentioned through an introductory phrase,
// title-cased word by word, or "".
func Name(text string) string {
	for _, re := range nameRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return titleCase(trimTail(m[1]))
		}
	}
	return ""
}

func trimTail(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".,;")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
