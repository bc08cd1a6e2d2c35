// ABOUTME: In-memory fakes of the session collaborators used by the tests
// ABOUTME: The backend fake can fail or block individual calls on demand

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
)

var errBackend = errors.New("backend unavailable")

type fakeIdentity struct {
	mu       sync.Mutex
	profile  chat.Profile
	resolved bool
}

func (f *fakeIdentity) Current() (chat.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, f.resolved
}

func resolvedIdentity() *fakeIdentity {
	return &fakeIdentity{
		profile: chat.Profile{
			UserID:         "u1",
			Username:       "ana",
			NativeLanguage: "es",
			TargetLanguage: "en",
			Level:          "A2",
		},
		resolved: true,
	}
}

type fakeBackend struct {
	mu sync.Mutex

	partners    []chat.Partner
	partnersErr error
	listCalls   int

	history      map[string][]chat.Message
	historyErr   error
	historyCalls []string
	// historyGate blocks ListMessages for a partner until the channel closes.
	historyGate    map[string]chan struct{}
	historyStarted chan string

	translateErr   error
	translateCalls []string
	sendErr        error
	sendRequests   []chat.SendRequest
	sendGate       chan struct{}
	sendStarted    chan struct{}

	correction  *chat.Correction
	correctErr  error
	feedback    string
	feedbackErr error
	feedbackCtx string

	markReadErr   error
	markReadCalls []string
	archiveErr    error
	archiveCalls  []string
}

func newFakeBackend(partners ...chat.Partner) *fakeBackend {
	return &fakeBackend{
		partners:       partners,
		history:        make(map[string][]chat.Message),
		historyGate:    make(map[string]chan struct{}),
		historyStarted: make(chan string, 16),
		sendStarted:    make(chan struct{}, 16),
	}
}

func (f *fakeBackend) ListPartners(_ context.Context, _ string) ([]chat.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.partnersErr != nil {
		return nil, f.partnersErr
	}
	out := make([]chat.Partner, len(f.partners))
	copy(out, f.partners)
	return out, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, _ string, partnerID string) ([]chat.Message, error) {
	f.mu.Lock()
	f.historyCalls = append(f.historyCalls, partnerID)
	gate := f.historyGate[partnerID]
	f.mu.Unlock()

	f.historyStarted <- partnerID
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	msgs := f.history[partnerID]
	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, _, partnerID string, req chat.SendRequest) (*chat.Message, error) {
	f.mu.Lock()
	f.sendRequests = append(f.sendRequests, req)
	gate := f.sendGate
	f.mu.Unlock()

	f.sendStarted <- struct{}{}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &chat.Message{
		ID:        fmt.Sprintf("reply-%d", len(f.sendRequests)),
		Text:      "reply to " + req.Text,
		Sender:    chat.SenderPartner,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (f *fakeBackend) Translate(_ context.Context, text, targetLanguage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.translateCalls = append(f.translateCalls, targetLanguage)
	if f.translateErr != nil {
		return "", f.translateErr
	}
	return "[" + targetLanguage + "] " + text, nil
}

func (f *fakeBackend) Correct(_ context.Context, text, _ string) (*chat.Correction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.correctErr != nil {
		return nil, f.correctErr
	}
	if f.correction != nil {
		c := *f.correction
		return &c, nil
	}
	return &chat.Correction{Original: text, Corrected: text, Explanation: "ok"}, nil
}

func (f *fakeBackend) Feedback(_ context.Context, _ string, topic string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedbackCtx = topic
	if f.feedbackErr != nil {
		return "", f.feedbackErr
	}
	return f.feedback, nil
}

func (f *fakeBackend) MarkRead(_ context.Context, _, partnerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls = append(f.markReadCalls, partnerID)
	return f.markReadErr
}

func (f *fakeBackend) ArchivePartner(_ context.Context, _, partnerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archiveCalls = append(f.archiveCalls, partnerID)
	return f.archiveErr
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type fakeClipboard struct {
	mu     sync.Mutex
	copied []string
	err    error
}

func (c *fakeClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.copied = append(c.copied, text)
	return c.err
}

type fakeSpeaker struct {
	mu    sync.Mutex
	calls [][2]string
	err   error
}

func (s *fakeSpeaker) Speak(_ context.Context, text, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, [2]string{text, language})
	return s.err
}

func samplePartners() []chat.Partner {
	return []chat.Partner{
		{ID: "1", Name: "Sarah", Role: "Medical Sales Rep", LastMessage: "How was your meeting?", UnreadCount: 3},
		{ID: "2", Name: "Mike", Role: "Gym Trainer", LastMessage: "Ready for leg day?", UnreadCount: 0},
		{ID: "3", Name: "Emma", Role: "Travel Companion", LastMessage: "Where should we go next?", UnreadCount: 1},
	}
}

func newTestManager(t *testing.T, backend *fakeBackend) *Manager {
	t.Helper()
	m := New(backend, resolvedIdentity(), nil)
	n := 0
	m.newID = func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC) }
	t.Cleanup(m.Close)
	return m
}

// loadedManager returns a manager whose roster is loaded and first partner selected.
func loadedManager(t *testing.T, backend *fakeBackend) *Manager {
	t.Helper()
	m := newTestManager(t, backend)
	if err := m.LoadRoster(context.Background()); err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	return m
}

func waitFor[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}
