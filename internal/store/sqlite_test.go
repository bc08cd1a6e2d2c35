// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers users, partner ownership, unread counts, message ordering and seeding

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "u1", "ana")

	got, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Username != "ana" || got.NativeLanguage != "es" || got.TargetLanguage != "en" || got.CEFRLevel != "A2" {
		t.Errorf("unexpected user: %+v", got)
	}
	if !got.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, user.CreatedAt)
	}

	byName, err := store.GetUserByUsername(ctx, "ana")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byName.ID != "u1" {
		t.Errorf("expected u1, got %q", byName.ID)
	}

	if _, err := store.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetUserByUsername(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	createTestUser(t, store, "u1", "ana")

	err := store.CreateUser(context.Background(), &User{
		ID: "u2", Username: "ana", PasswordHash: "x",
		NativeLanguage: "es", TargetLanguage: "en", CEFRLevel: "A2", CreatedAt: baseTime,
	})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestPartners_OwnershipAndOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "u1", "ana")
	createTestUser(t, store, "u2", "ben")

	createTestPartner(t, store, "p-old", "u1", baseTime.Add(-time.Hour))
	createTestPartner(t, store, "p-new", "u1", baseTime)
	createTestPartner(t, store, "p-other", "u2", baseTime)

	partners, err := store.ListPartners(ctx, "u1")
	if err != nil {
		t.Fatalf("ListPartners failed: %v", err)
	}
	if len(partners) != 2 {
		t.Fatalf("expected 2 partners, got %d", len(partners))
	}
	if partners[0].ID != "p-new" || partners[1].ID != "p-old" {
		t.Errorf("expected most recent first, got %s, %s", partners[0].ID, partners[1].ID)
	}

	if _, err := store.GetPartner(ctx, "u1", "p-other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for another user's partner, got %v", err)
	}
	if err := store.DeletePartner(ctx, "u1", "p-other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting another user's partner, got %v", err)
	}

	empty, err := store.ListPartners(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListPartners failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestUnreadCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "u1", "ana")
	createTestPartner(t, store, "p1", "u1", baseTime)

	if err := store.AddUnread(ctx, "u1", "p1", 2); err != nil {
		t.Fatalf("AddUnread failed: %v", err)
	}
	if err := store.AddUnread(ctx, "u1", "p1", 1); err != nil {
		t.Fatalf("AddUnread failed: %v", err)
	}
	p, _ := store.GetPartner(ctx, "u1", "p1")
	if p.UnreadCount != 3 {
		t.Errorf("expected 3 unread, got %d", p.UnreadCount)
	}

	if err := store.MarkRead(ctx, "u1", "p1"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	p, _ = store.GetPartner(ctx, "u1", "p1")
	if p.UnreadCount != 0 {
		t.Errorf("expected 0 unread, got %d", p.UnreadCount)
	}

	if err := store.MarkRead(ctx, "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveMessage_UpdatesPreview(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "u1", "ana")
	createTestPartner(t, store, "p1", "u1", baseTime)

	at := baseTime.Add(5 * time.Minute)
	if err := store.SaveMessage(ctx, &Message{ID: "m1", PartnerID: "p1", Text: "Great!", Sender: SenderPartner, CreatedAt: at}); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	p, _ := store.GetPartner(ctx, "u1", "p1")
	if p.LastMessage != "Great!" {
		t.Errorf("expected preview to follow message, got %q", p.LastMessage)
	}
	if !p.LastActivity.Equal(at) {
		t.Errorf("expected activity %v, got %v", at, p.LastActivity)
	}

	err := store.SaveMessage(ctx, &Message{ID: "m1", PartnerID: "p1", Text: "again", Sender: SenderUser, CreatedAt: at})
	if !errors.Is(err, ErrDuplicateMessage) {
		t.Errorf("expected ErrDuplicateMessage, got %v", err)
	}
	p, _ = store.GetPartner(ctx, "u1", "p1")
	if p.LastMessage != "Great!" {
		t.Errorf("failed save must not move the preview, got %q", p.LastMessage)
	}

	err = store.SaveMessage(ctx, &Message{ID: "m2", PartnerID: "missing", Text: "x", Sender: SenderUser, CreatedAt: at})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown partner, got %v", err)
	}
}

func TestListMessages_OrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "u1", "ana")
	createTestPartner(t, store, "p1", "u1", baseTime)

	for i := 0; i < 5; i++ {
		msg := &Message{
			ID:        fmt.Sprintf("m%d", i),
			PartnerID: "p1",
			Text:      fmt.Sprintf("message %d", i),
			Sender:    SenderUser,
			// Two messages share a timestamp; insertion order breaks the tie.
			CreatedAt: baseTime.Add(time.Duration(i/2) * time.Second),
		}
		if err := store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	all, err := store.ListMessages(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(all))
	}
	for i, msg := range all {
		if msg.ID != fmt.Sprintf("m%d", i) {
			t.Errorf("position %d: expected m%d, got %s", i, i, msg.ID)
		}
	}

	last, err := store.ListMessages(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(last) != 2 || last[0].ID != "m3" || last[1].ID != "m4" {
		t.Errorf("expected newest two in chronological order, got %v", ids(last))
	}
}

func TestListMessages_SubSecondOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "u1", "ana")
	createTestPartner(t, store, "p1", "u1", baseTime)

	// Saved out of order: the later message has a fractional second, the
	// earlier one lands exactly on the second.
	later := &Message{ID: "later", PartnerID: "p1", Text: "b", Sender: SenderPartner, CreatedAt: baseTime.Add(1500 * time.Millisecond)}
	earlier := &Message{ID: "earlier", PartnerID: "p1", Text: "a", Sender: SenderUser, CreatedAt: baseTime.Add(time.Second)}
	for _, msg := range []*Message{later, earlier} {
		if err := store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	got, err := store.ListMessages(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "earlier" || got[1].ID != "later" {
		t.Fatalf("expected [earlier later], got %v", ids(got))
	}
	if !got[1].CreatedAt.Equal(later.CreatedAt) {
		t.Errorf("created_at round trip: got %v, want %v", got[1].CreatedAt, later.CreatedAt)
	}
}

func TestDeletePartner_CascadesMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "u1", "ana")
	createTestPartner(t, store, "p1", "u1", baseTime)
	if err := store.SaveMessage(ctx, &Message{ID: "m1", PartnerID: "p1", Text: "hi", Sender: SenderUser, CreatedAt: baseTime}); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	if err := store.DeletePartner(ctx, "u1", "p1"); err != nil {
		t.Fatalf("DeletePartner failed: %v", err)
	}

	if _, err := store.GetPartner(ctx, "u1", "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	msgs, err := store.ListMessages(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected messages to be deleted with partner, got %d", len(msgs))
	}
}

func TestSeedPartners(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "u1", "ana")

	seeded, err := SeedPartners(ctx, store, "u1", "B1", baseTime)
	if err != nil {
		t.Fatalf("SeedPartners failed: %v", err)
	}
	if len(seeded) != 3 {
		t.Fatalf("expected 3 partners, got %d", len(seeded))
	}

	partners, err := store.ListPartners(ctx, "u1")
	if err != nil {
		t.Fatalf("ListPartners failed: %v", err)
	}
	wantNames := []string{"Sarah", "Mike", "Emma"}
	wantUnread := []int{3, 0, 1}
	for i, p := range partners {
		if p.Name != wantNames[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantNames[i], p.Name)
		}
		if p.UnreadCount != wantUnread[i] {
			t.Errorf("%s: expected %d unread, got %d", p.Name, wantUnread[i], p.UnreadCount)
		}
		if p.Level != "B1" {
			t.Errorf("%s: expected level B1, got %s", p.Name, p.Level)
		}
		msgs, _ := store.ListMessages(ctx, p.ID, 0)
		if len(msgs) != 1 || msgs[0].Text != p.LastMessage || msgs[0].Sender != SenderPartner {
			t.Errorf("%s: expected one opening message matching the preview", p.Name)
		}
	}
}

func ids(msgs []*Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func createTestUser(t *testing.T, store *SQLiteStore, id, username string) *User {
	t.Helper()
	user := &User{
		ID:             id,
		Username:       username,
		PasswordHash:   "hash",
		NativeLanguage: "es",
		TargetLanguage: "en",
		CEFRLevel:      "A2",
		CreatedAt:      baseTime,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func createTestPartner(t *testing.T, store *SQLiteStore, id, userID string, activity time.Time) *Partner {
	t.Helper()
	p := &Partner{
		ID:           id,
		UserID:       userID,
		Name:         "Sarah",
		Role:         "Medical Sales Rep",
		Level:        "A2",
		LastMessage:  "How was your meeting?",
		LastActivity: activity,
		CreatedAt:    activity,
	}
	if err := store.CreatePartner(context.Background(), p); err != nil {
		t.Fatalf("CreatePartner failed: %v", err)
	}
	return p
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}
