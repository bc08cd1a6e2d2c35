// ABOUTME: Manager owns the client-side state of one chat session
// ABOUTME: State is mutated under a mutex and every change is broadcast to subscribers

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/menu"
	"github.com/yopuedo360/yopuedo-chat/internal/notify"
)

var (
	// ErrUnknownPartner is returned when an id is not in the roster.
	ErrUnknownPartner = errors.New("unknown partner")
	// ErrUnknownMessage is returned when an id is not in the message list.
	ErrUnknownMessage = errors.New("unknown message")
	// ErrSendInProgress is returned while a previous send awaits its reply.
	ErrSendInProgress = errors.New("send already in progress")
	// ErrNotUserMessage is returned when correcting a partner message.
	ErrNotUserMessage = errors.New("only user messages can be corrected")
	// ErrNoPendingRemoval is returned by ResolveRemoval with nothing to resolve.
	ErrNoPendingRemoval = errors.New("no removal pending")
)

// User-visible status strings.
const (
	StatusRosterError  = "Error loading conversations"
	StatusHistoryError = "Error loading messages"
	StatusSendError    = "Error sending message"
)

// RemovalPrompt is the question asked before a partner is removed.
const RemovalPrompt = "Are you sure you want to delete this conversation?"

// TempIDPrefix marks ids of messages that have not been confirmed by the backend.
const TempIDPrefix = "temp-"

// Manager is the conversation session state machine for one identity.
// All methods are safe for concurrent use. Methods that talk to the backend
// release the lock while waiting, so other intents may interleave between
// their steps.
type Manager struct {
	backend   Backend
	identity  IdentitySource
	speaker   Speaker
	clipboard Clipboard
	events    *notify.Broadcaster[Event]
	logger    *slog.Logger

	newID func() string
	now   func() time.Time

	mu             sync.Mutex
	roster         []chat.Partner
	selectedID     string
	generation     uint64
	messages       []chat.Message
	replies        map[string]string // confirmed temp id -> reply id
	input          string
	typing         bool
	menus          *menu.Controller
	query          string
	status         string
	loading        bool
	pendingRemoval string
	notice         *Notice
}

// New creates a session bound to the given backend and identity source.
// Speech and clipboard default to no-ops until set.
func New(backend Backend, identity IdentitySource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session")
	return &Manager{
		backend:   backend,
		identity:  identity,
		speaker:   nopSpeaker{},
		clipboard: nopClipboard{},
		events:    notify.New[Event](logger),
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
		menus:     menu.New(),
	}
}

// SetSpeaker sets the speech output used by SpeakMessage.
func (m *Manager) SetSpeaker(s Speaker) {
	if s == nil {
		s = nopSpeaker{}
	}
	m.mu.Lock()
	m.speaker = s
	m.mu.Unlock()
}

// SetClipboard sets the clipboard used by CopyMessage.
func (m *Manager) SetClipboard(c Clipboard) {
	if c == nil {
		c = nopClipboard{}
	}
	m.mu.Lock()
	m.clipboard = c
	m.mu.Unlock()
}

// Subscribe returns a channel of change events, closed when ctx is done.
func (m *Manager) Subscribe(ctx context.Context) <-chan Event {
	ch, _ := m.events.Subscribe(ctx)
	return ch
}

// Close releases all subscribers.
func (m *Manager) Close() {
	m.events.Close()
}

// Snapshot returns a copy of the readable state.
func (m *Manager) Snapshot() Snapshot {
	profile, resolved := m.identity.Current()

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Profile:     profile,
		Resolved:    resolved,
		Partners:    FilterPartners(m.roster, m.query),
		TotalUnread: sumUnread(m.roster),
		Messages:    m.visibleMessages(),
		Input:       m.input,
		Typing:      m.typing,
		Loading:     m.loading,
		SearchQuery: m.query,
		Status:      m.status,
	}
	if p := m.selectedLocked(); p != nil {
		sel := *p
		snap.Selected = &sel
	}
	snap.MessageMenu, _ = m.menus.Open(menu.Message)
	snap.PartnerMenu, _ = m.menus.Open(menu.Partner)
	if m.notice != nil {
		n := *m.notice
		if n.Correction != nil {
			c := *n.Correction
			n.Correction = &c
		}
		snap.Notice = &n
	}
	if i := m.partnerIndex(m.pendingRemoval); i >= 0 {
		p := m.roster[i]
		snap.PendingRemoval = &p
	}
	return snap
}

// Title is the window title reflecting the total unread count.
func (m *Manager) Title() string {
	m.mu.Lock()
	n := sumUnread(m.roster)
	m.mu.Unlock()
	if n > 0 {
		return fmt.Sprintf("(%d) Chat | YoPuedo360", n)
	}
	return "Chat | YoPuedo360"
}

// SetInput replaces the pending input text.
func (m *Manager) SetInput(text string) {
	m.mu.Lock()
	m.input = text
	m.mu.Unlock()
	m.emit(Event{Kind: EventInput})
}

// ClearStatus clears the status slot.
func (m *Manager) ClearStatus() {
	m.mu.Lock()
	changed := m.status != ""
	m.status = ""
	m.mu.Unlock()
	if changed {
		m.emit(Event{Kind: EventStatus})
	}
}

// DismissNotice drops the current correction or feedback notice.
func (m *Manager) DismissNotice() {
	m.mu.Lock()
	changed := m.notice != nil
	m.notice = nil
	m.mu.Unlock()
	if changed {
		m.emit(Event{Kind: EventNotice})
	}
}

func (m *Manager) emit(events ...Event) {
	for _, ev := range events {
		m.events.Publish(ev, "")
	}
}

// profile returns the current user when identity has resolved with a user id.
func (m *Manager) profile() (chat.Profile, bool) {
	p, ok := m.identity.Current()
	if !ok || p.UserID == "" {
		return chat.Profile{}, false
	}
	return p, true
}

func (m *Manager) partnerIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.roster {
		if m.roster[i].ID == id {
			return i
		}
	}
	return -1
}

// selectedLocked resolves the selected id against the roster.
func (m *Manager) selectedLocked() *chat.Partner {
	if i := m.partnerIndex(m.selectedID); i >= 0 {
		return &m.roster[i]
	}
	return nil
}

func (m *Manager) messageIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.messages {
		if m.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) visibleMessages() []chat.Message {
	out := make([]chat.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.State != chat.StateFailed {
			out = append(out, msg)
		}
	}
	return out
}
