// ABOUTME: Tests for markdown flattening, truncation and activity timestamps
// ABOUTME: Uses fixed reference times so relative output is deterministic

package textfmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "How was your meeting?", "How was your meeting?"},
		{"emphasis", "**Hello** _world_", "Hello world"},
		{"heading and body", "# Tip\n\nUse the past tense.", "Tip\nUse the past tense."},
		{"list", "- one\n- two", Bullet + "one\n" + Bullet + "two"},
		{"code span", "Say `I went`.", "Say I went."},
		{"fenced code", "```\nI went home\n```", "I went home"},
		{"link", "See [this](https://example.com).", "See this."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "Tip Use the…", Preview("# Tip\n\nUse the past tense.", 12))
	assert.Equal(t, "Ready for leg day?", Preview("Ready for leg day?", 40))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("hola", 0))
	assert.Equal(t, "hola", Truncate("hola", 4))
	assert.Equal(t, "ho…", Truncate("hola", 3))
	assert.Equal(t, "¿Có…", Truncate("¿Cómo estás?", 4))
	assert.Equal(t, "✈️", Truncate("✈️", 2))
}

func TestActivity(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "", Activity(now, time.Time{}))
	assert.Equal(t, "5 minutes ago", Activity(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "2 hours ago", Activity(now, now.Add(-2*time.Hour)))
	assert.Equal(t, "Wed", Activity(now, time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1 Dec", Activity(now, time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)))
}
