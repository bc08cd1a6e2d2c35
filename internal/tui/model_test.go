// ABOUTME: Tests for the chat TUI model driven through key messages
// ABOUTME: A real session.Manager runs over an in-memory backend

package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/session"
)

var errDown = errors.New("backend down")

type memoryBackend struct {
	mu       sync.Mutex
	partners []chat.Partner
	history  map[string][]chat.Message
	sendErr  error
	archived []string
}

func newMemoryBackend() *memoryBackend {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &memoryBackend{
		partners: []chat.Partner{
			{ID: "p1", Name: "Sarah", Role: "Medical Sales Rep", Avatar: "👩‍⚕️", LastMessage: "How was your meeting?", LastActivity: at, UnreadCount: 3},
			{ID: "p2", Name: "Mike", Role: "Gym Trainer", Avatar: "💪", LastMessage: "Ready for leg day?", LastActivity: at},
			{ID: "p3", Name: "Emma", Role: "Travel Companion", Avatar: "✈️", LastMessage: "Where should we go next?", LastActivity: at, UnreadCount: 1},
		},
		history: map[string][]chat.Message{
			"p1": {
				{ID: "m1", Text: "How was your meeting?", Translation: "¿Cómo estuvo tu reunión?", Sender: chat.SenderPartner, ShowTranslation: true},
				{ID: "m2", Text: "it go well", Sender: chat.SenderUser},
			},
		},
	}
}

func (b *memoryBackend) ListPartners(context.Context, string) ([]chat.Partner, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]chat.Partner(nil), b.partners...), nil
}

func (b *memoryBackend) ListMessages(_ context.Context, _, partnerID string) ([]chat.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]chat.Message(nil), b.history[partnerID]...), nil
}

func (b *memoryBackend) SendMessage(_ context.Context, _, _ string, req chat.SendRequest) (*chat.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return nil, b.sendErr
	}
	return &chat.Message{ID: "r-" + req.IdempotencyKey, Text: "Tell me more about " + req.Text, Sender: chat.SenderPartner}, nil
}

func (b *memoryBackend) Translate(_ context.Context, text, _ string) (string, error) {
	return "(es) " + text, nil
}

func (b *memoryBackend) Correct(_ context.Context, text, _ string) (*chat.Correction, error) {
	return &chat.Correction{Original: text, Corrected: "It went well.", Explanation: "Usa el pasado."}, nil
}

func (b *memoryBackend) Feedback(context.Context, string, string) (string, error) {
	return "Good use of vocabulary!", nil
}

func (b *memoryBackend) MarkRead(context.Context, string, string) error { return nil }

func (b *memoryBackend) ArchivePartner(_ context.Context, _, partnerID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.archived = append(b.archived, partnerID)
	return nil
}

type staticIdentity struct{}

func (staticIdentity) Current() (chat.Profile, bool) {
	return chat.Profile{UserID: "u1", Username: "ana", NativeLanguage: "es", TargetLanguage: "en", Level: "A2"}, true
}

type recordingClipboard struct {
	mu     sync.Mutex
	copied []string
}

func (c *recordingClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.copied = append(c.copied, text)
	return nil
}

// newLoadedModel returns a sized model whose roster has been loaded.
func newLoadedModel(t *testing.T, backend *memoryBackend) Model {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := session.New(backend, staticIdentity{}, nil)
	t.Cleanup(func() {
		cancel()
		s.Close()
	})

	m := New(ctx, s, nil)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return drain(t, m, m.run("load roster", s.LoadRoster))
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

// drain runs cmd and feeds intent results back into the model. Commands that
// do not finish promptly, such as cursor blinks, are abandoned.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		if done, ok := msg.(doneMsg); ok {
			next, more := m.Update(done)
			m = drain(t, next.(Model), more)
		}
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		batch, ok := msg.(tea.BatchMsg)
		if !ok {
			return []tea.Msg{msg}
		}
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = send(t, m, key(k))
	}
	return m
}

func TestModel_InitialLoad(t *testing.T) {
	m := newLoadedModel(t, newMemoryBackend())

	require.NotNil(t, m.snap.Selected)
	assert.Equal(t, "Sarah", m.snap.Selected.Name)
	assert.Equal(t, "(1) Chat | YoPuedo360", m.title)
	assert.Len(t, m.snap.Messages, 2)

	view := m.View()
	assert.Contains(t, view, "Sarah")
	assert.Contains(t, view, "Mike")
	assert.Contains(t, view, "1 unread")
	assert.Contains(t, view, "¿Cómo estuvo tu reunión?")
}

func TestModel_ViewBeforeSize(t *testing.T) {
	s := session.New(newMemoryBackend(), staticIdentity{}, nil)
	defer s.Close()
	m := New(context.Background(), s, nil)

	assert.Equal(t, "Loading...", m.View())
}

func TestModel_SendFromInput(t *testing.T) {
	m := newLoadedModel(t, newMemoryBackend())

	m = press(t, m, "hello")
	assert.Equal(t, "hello", m.session.Snapshot().Input)

	m = press(t, m, "enter")

	require.Len(t, m.snap.Messages, 4)
	assert.Equal(t, "hello", m.snap.Messages[2].Text)
	assert.Equal(t, "(es) hello", m.snap.Messages[2].Translation)
	assert.Equal(t, "Tell me more about hello", m.snap.Messages[3].Text)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "Tell me more about hello")
}

func TestModel_SendFailureShowsStatus(t *testing.T) {
	backend := newMemoryBackend()
	backend.sendErr = errDown
	m := newLoadedModel(t, backend)

	m = press(t, m, "hello", "enter")

	assert.Equal(t, session.StatusSendError, m.snap.Status)
	assert.Len(t, m.snap.Messages, 2)
	assert.Contains(t, m.View(), session.StatusSendError)

	m = press(t, m, "esc")
	assert.Empty(t, m.snap.Status)
}

func TestModel_RosterNavigationSelects(t *testing.T) {
	m := newLoadedModel(t, newMemoryBackend())

	m = press(t, m, "tab")
	assert.Equal(t, focusRoster, m.focus)

	m = press(t, m, "down", "enter")

	require.NotNil(t, m.snap.Selected)
	assert.Equal(t, "Mike", m.snap.Selected.Name)
	assert.Equal(t, focusInput, m.focus)
	assert.Empty(t, m.snap.Messages)
}

func TestModel_SearchFiltersRoster(t *testing.T) {
	m := newLoadedModel(t, newMemoryBackend())
	m = press(t, m, "tab", "/", "gym")

	assert.Equal(t, modeSearch, m.mode)
	require.Len(t, m.snap.Partners, 1)
	assert.Equal(t, "Mike", m.snap.Partners[0].Name)

	m = press(t, m, "enter")
	assert.Equal(t, modeNormal, m.mode)
	assert.Equal(t, "gym", m.snap.SearchQuery)

	m = press(t, m, "/", "esc")
	assert.Empty(t, m.snap.SearchQuery)
	assert.Len(t, m.snap.Partners, 3)
}

func TestModel_RemovePartnerWithConfirmation(t *testing.T) {
	backend := newMemoryBackend()
	m := newLoadedModel(t, backend)
	m = press(t, m, "tab", "down", "m")
	assert.Equal(t, "p2", m.snap.PartnerMenu)

	m = press(t, m, "d")
	require.NotNil(t, m.snap.PendingRemoval)
	assert.Contains(t, m.View(), session.RemovalPrompt)

	m = press(t, m, "n")
	assert.Nil(t, m.snap.PendingRemoval)
	assert.Len(t, m.snap.Partners, 3)

	m = press(t, m, "m", "d", "y")
	assert.Nil(t, m.snap.PendingRemoval)
	require.Len(t, m.snap.Partners, 2)
	for _, p := range m.snap.Partners {
		assert.NotEqual(t, "Mike", p.Name)
	}
	backend.mu.Lock()
	assert.Equal(t, []string{"p2"}, backend.archived)
	backend.mu.Unlock()
}

func TestModel_MessageMenuActions(t *testing.T) {
	m := newLoadedModel(t, newMemoryBackend())
	cb := &recordingClipboard{}
	m.session.SetClipboard(cb)

	m = press(t, m, "tab", "tab")
	require.Equal(t, focusChat, m.focus)

	m = press(t, m, "enter")
	assert.Equal(t, "m2", m.snap.MessageMenu)
	assert.Contains(t, m.View(), "[x] correct")

	m = press(t, m, "x")
	assert.Empty(t, m.snap.MessageMenu)
	require.NotNil(t, m.snap.Notice)
	assert.Equal(t, session.NoticeCorrection, m.snap.Notice.Kind)
	assert.Contains(t, m.View(), "It went well.")

	m = press(t, m, "esc")
	assert.Nil(t, m.snap.Notice)

	m = press(t, m, "up", "enter")
	assert.Equal(t, "m1", m.snap.MessageMenu)
	assert.NotContains(t, m.View(), "[x] correct")

	m = press(t, m, "c")
	assert.Empty(t, m.snap.MessageMenu)
	assert.Equal(t, []string{"How was your meeting?"}, cb.copied)

	m = press(t, m, "enter", "t")
	assert.False(t, m.snap.Messages[0].ShowTranslation)
}

func TestModel_TabDismissesMenus(t *testing.T) {
	m := newLoadedModel(t, newMemoryBackend())
	m = press(t, m, "tab", "tab", "enter")
	require.NotEmpty(t, m.snap.MessageMenu)

	m = press(t, m, "tab")

	assert.Equal(t, focusInput, m.focus)
	assert.Empty(t, m.snap.MessageMenu)
}

func TestModel_CtrlCQuits(t *testing.T) {
	m := newLoadedModel(t, newMemoryBackend())

	_, cmd := m.Update(key("ctrl+c"))

	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestRenderMessage_PendingAndTranslation(t *testing.T) {
	out := renderMessage(chat.Message{
		Text:            "hola",
		Translation:     "hello",
		ShowTranslation: true,
		Sender:          chat.SenderUser,
		State:           chat.StatePending,
	}, "Sarah", 40, false)

	assert.True(t, strings.Contains(out, "sending..."))
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "You")
}
