package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuleFor(t *testing.T) {
	tests := []struct {
		purpose    string
		wantWindow time.Duration
		wantMax    int64
	}{
		{purpose: "register", wantWindow: time.Hour, wantMax: 5},
		{purpose: "auth", wantWindow: 15 * time.Minute, wantMax: 10},
		{purpose: "purchase", wantWindow: time.Hour, wantMax: 15},
		{purpose: "dashboard", wantWindow: 5 * time.Minute, wantMax: 30},
		{purpose: "something-else", wantWindow: 15 * time.Minute, wantMax: 100},
	}

	for _, tt := range tests {
		t.Run(tt.purpose, func(t *testing.T) {
			r := ruleFor(tt.purpose)
			assert.Equal(t, tt.wantWindow, r.window)
			assert.Equal(t, tt.wantMax, r.max)
		})
	}
}

func TestIPKey(t *testing.T) {
	assert.Equal(t, "ratelimit:register:10.0.0.1", ipKey("10.0.0.1", "register"))
	assert.Equal(t, "ratelimit:auth:2001:db8::1", ipKey("2001:db8::1", "auth"))
}
