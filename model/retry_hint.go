package model

import (
	"regexp"
	"strconv"
	"time"
)

// Providers embed advisory delays in 429 bodies in a couple of shapes, e.g.
// "Please try again in 1.2s", "Please try again in 250ms" or
// "retry after 20 seconds". Extraction is opportunistic; absence of a hint is
// not an error.
var retryHintRe = regexp.MustCompile(`(?i)(?:try again|retry)[^0-9]{0,20}?(\d+(?:\.\d+)?)\s*(ms|milliseconds?|s|sec|seconds?)`)

// ParseRetryAfterHint extracts a best-effort advisory retry delay from an
// upstream error body. The second return is false when no hint was found.
func ParseRetryAfterHint(body string) (time.Duration, bool) {
	m := retryHintRe.FindStringSubmatch(body)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2][0] {
	case 'm', 'M':
		return time.Duration(n * float64(time.Millisecond)), true
	default:
		return time.Duration(n * float64(time.Second)), true
	}
}
