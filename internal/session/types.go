// ABOUTME: Public types of the conversation session: events, notices and snapshots
// ABOUTME: Everything a presentation layer reads from a Manager is defined here

package session

import (
	"github.com/yopuedo360/yopuedo-chat/internal/chat"
)

// EventKind names the slice of session state a change touched.
type EventKind string

const (
	EventRoster    EventKind = "roster"
	EventSelection EventKind = "selection"
	EventMessages  EventKind = "messages"
	EventTyping    EventKind = "typing"
	EventMenus     EventKind = "menus"
	EventInput     EventKind = "input"
	EventStatus    EventKind = "status"
	EventNotice    EventKind = "notice"
	EventRemoval   EventKind = "removal"
)

// Event is published after every state mutation.
type Event struct {
	Kind      EventKind
	PartnerID string
}

// NoticeKind distinguishes the results a side action can present.
type NoticeKind string

const (
	NoticeCorrection NoticeKind = "correction"
	NoticeFeedback   NoticeKind = "feedback"
)

// Notice is the result of a correct or feedback action, held until dismissed.
type Notice struct {
	Kind       NoticeKind
	MessageID  string
	Correction *chat.Correction
	Feedback   string
}

// ConfirmFunc answers a yes/no question put to the user.
type ConfirmFunc func(prompt string) bool

// Snapshot is a deep copy of the readable session state.
type Snapshot struct {
	Profile  chat.Profile
	Resolved bool

	// Partners is the roster filtered by SearchQuery.
	Partners    []chat.Partner
	TotalUnread int
	Selected    *chat.Partner

	// Messages excludes failed sends.
	Messages []chat.Message
	Input    string
	Typing   bool
	Loading  bool

	MessageMenu string
	PartnerMenu string
	SearchQuery string
	Status      string
	Notice      *Notice

	// PendingRemoval is the partner awaiting a yes/no answer, if any.
	PendingRemoval *chat.Partner
}
