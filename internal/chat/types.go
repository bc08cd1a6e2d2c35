// ABOUTME: Domain types shared by the session manager, backend client and dev server
// ABOUTME: Defines conversation partners, messages, corrections and learner profiles

package chat

import (
	"strings"
	"time"
)

// Sender identifies who wrote a message.
type Sender string

// Sender values. Partner messages use "ai" on the wire.
const (
	SenderUser    Sender = "user"
	SenderPartner Sender = "ai"
)

// DeliveryState tracks an optimistic message through the send pipeline.
// The zero value is StateConfirmed so history loaded from the backend needs
// no extra tagging.
type DeliveryState int

const (
	StateConfirmed DeliveryState = iota
	StatePending
	StateFailed
)

func (s DeliveryState) String() string {
	switch s {
	case StateConfirmed:
		return "confirmed"
	case StatePending:
		return "pending"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Partner is an AI conversation partner ("friend") in the user's roster.
type Partner struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Avatar       string    `json:"avatar"`
	Level        string    `json:"level"`
	LastMessage  string    `json:"last_message"`
	LastActivity time.Time `json:"timestamp"`
	Unread       bool      `json:"unread"`
	UnreadCount  int       `json:"unread_count"`
}

// Normalize enforces the unread invariant: the flag is set exactly when the
// count is positive. Negative counts are clamped to zero.
func (p *Partner) Normalize() {
	if p.UnreadCount < 0 {
		p.UnreadCount = 0
	}
	p.Unread = p.UnreadCount > 0
}

// Matches reports whether the partner's name, role or last message contains
// query, ignoring case. An empty query matches everything.
func (p *Partner) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Role), q) ||
		strings.Contains(strings.ToLower(p.LastMessage), q)
}

// Message is one exchange unit within a conversation.
type Message struct {
	ID              string        `json:"id"`
	Text            string        `json:"text"`
	Translation     string        `json:"translation"`
	Sender          Sender        `json:"sender"`
	CreatedAt       time.Time     `json:"timestamp"`
	ShowTranslation bool          `json:"show_translation"`
	State           DeliveryState `json:"-"`
}

// Correction is a grammar correction of a learner's message.
type Correction struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
}

// Profile is the resolved identity and learning profile of the current user.
type Profile struct {
	UserID         string
	Username       string
	NativeLanguage string
	TargetLanguage string
	Level          string
}

// Profile defaults applied when the learning profile leaves a field empty.
const (
	DefaultNativeLanguage = "es"
	DefaultTargetLanguage = "en"
	DefaultLevel          = "A2"
)
