// ABOUTME: Bubble Tea model that presents a session.Manager in the terminal
// ABOUTME: Intents run as commands and redraws follow the session's change events

package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yopuedo360/yopuedo-chat/internal/session"
)

type focus int

const (
	focusInput focus = iota
	focusRoster
	focusChat
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
)

// eventMsg carries one session change event into the update loop.
type eventMsg session.Event

// eventsClosedMsg is delivered once the subscription ends.
type eventsClosedMsg struct{}

// doneMsg reports the outcome of an intent that ran as a command.
type doneMsg struct {
	op  string
	err error
}

// Model is the root Bubble Tea model for the chat client.
type Model struct {
	ctx     context.Context
	session *session.Manager
	events  <-chan session.Event
	logger  *slog.Logger
	now     func() time.Time

	snap  session.Snapshot
	title string

	focus  focus
	mode   mode
	cursor int
	// msgCursor indexes snap.Messages; -1 follows the newest message.
	msgCursor int
	// shown is the message count last rendered, used to follow new messages.
	shown int

	input  textinput.Model
	search textinput.Model
	chat   viewport.Model

	width  int
	height int
}

// New builds a model over s. The context bounds every backend call the UI
// starts and ends the event subscription.
func New(ctx context.Context, s *session.Manager, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Prompt = "> "
	input.CharLimit = 2000
	input.Focus()

	search := textinput.New()
	search.Placeholder = "Search conversations"
	search.Prompt = "/ "
	search.CharLimit = 100

	m := Model{
		ctx:       ctx,
		session:   s,
		events:    s.Subscribe(ctx),
		logger:    logger.With("component", "tui"),
		now:       time.Now,
		msgCursor: -1,
		input:     input,
		search:    search,
		chat:      viewport.New(0, 0),
	}
	m.refresh()
	return m
}

// Init loads the roster and starts listening for session events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.waitForEvent(),
		m.run("load roster", m.session.LoadRoster),
		tea.SetWindowTitle(m.title),
	)
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// run executes fn off the update loop and reports its result.
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{op: op, err: fn(ctx)}
	}
}

// Update handles terminal input, session events and command results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case eventMsg:
		return m, tea.Batch(m.refresh(), m.waitForEvent())

	case eventsClosedMsg:
		return m, nil

	case doneMsg:
		if msg.err != nil {
			m.logger.Debug("intent failed", "op", msg.op, "error", msg.err)
		}
		return m, m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusChat {
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh pulls a fresh snapshot and returns a title command when the title
// changed.
func (m *Model) refresh() tea.Cmd {
	m.snap = m.session.Snapshot()

	if n := len(m.snap.Partners); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	if m.msgCursor >= len(m.snap.Messages) {
		m.msgCursor = -1
	}
	// The session clears its input when a send starts.
	if m.snap.Input != m.input.Value() {
		m.input.SetValue(m.snap.Input)
	}

	m.renderChat()

	title := m.session.Title()
	if title == m.title {
		return nil
	}
	m.title = title
	return tea.SetWindowTitle(title)
}

func (m *Model) layout() {
	m.input.Width = max(10, m.width-6)
	m.search.Width = max(10, m.rosterInnerWidth()-4)
	m.renderChat()
}

// setFocus moves focus and dismisses menus, which counts as interacting
// outside them.
func (m *Model) setFocus(f focus) {
	if m.focus == f {
		return
	}
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.session.DismissMenus()
}

func (m Model) selectedMessageID() string {
	msgs := m.snap.Messages
	if len(msgs) == 0 {
		return ""
	}
	i := m.msgCursor
	if i < 0 || i >= len(msgs) {
		i = len(msgs) - 1
	}
	return msgs[i].ID
}

func (m Model) cursorPartnerID() string {
	if m.cursor < 0 || m.cursor >= len(m.snap.Partners) {
		return ""
	}
	return m.snap.Partners[m.cursor].ID
}
