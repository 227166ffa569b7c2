package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfterHint(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  time.Duration
		found bool
	}{
		{"seconds", `{"error":{"message":"Rate limit reached. Please try again in 20s."}}`, 20 * time.Second, true},
		{"fractional seconds", "Please try again in 1.5s.", 1500 * time.Millisecond, true},
		{"milliseconds", "Please try again in 250ms.", 250 * time.Millisecond, true},
		{"spelled out", "please retry after 3 seconds", 3 * time.Second, true},
		{"no hint", `{"error":{"message":"Rate limit reached."}}`, 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ParseRetryAfterHint(tt.body)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimitErrorUnwrap(t *testing.T) {
	inner := assert.AnError
	err := &RateLimitError{RetryAfter: time.Second, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "1s")
}
