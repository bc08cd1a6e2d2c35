// ABOUTME: Roster loading, partner selection, search and removal
// ABOUTME: Selection bumps the conversation generation used to discard stale results

package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/menu"
)

// FilterPartners returns the partners whose name, role or last message
// contains query, ignoring case. An empty query returns every partner.
// The result is always a fresh slice.
func FilterPartners(partners []chat.Partner, query string) []chat.Partner {
	out := make([]chat.Partner, 0, len(partners))
	for _, p := range partners {
		if p.Matches(query) {
			out = append(out, p)
		}
	}
	return out
}

func sumUnread(partners []chat.Partner) int {
	total := 0
	for _, p := range partners {
		total += p.UnreadCount
	}
	return total
}

// LoadRoster fetches the partners of the current user. It does nothing until
// identity has resolved. On success the first partner is selected when no
// partner is selected yet. On failure the roster is emptied and the status
// reports the error.
func (m *Manager) LoadRoster(ctx context.Context) error {
	profile, ok := m.profile()
	if !ok {
		return nil
	}

	m.mu.Lock()
	m.loading = true
	m.status = ""
	m.mu.Unlock()
	m.emit(Event{Kind: EventStatus})

	partners, err := m.backend.ListPartners(ctx, profile.UserID)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.roster = nil
		m.status = StatusRosterError
		events := []Event{{Kind: EventRoster}, {Kind: EventStatus}}
		if m.selectedID != "" {
			m.clearSelectionLocked()
			events = append(events, Event{Kind: EventSelection}, Event{Kind: EventMessages})
		}
		if m.menus.Close(menu.Partner) {
			events = append(events, Event{Kind: EventMenus})
		}
		m.mu.Unlock()
		m.logger.Error("loading roster failed", "user_id", profile.UserID, "error", err)
		m.emit(events...)
		return fmt.Errorf("loading roster: %w", err)
	}

	for i := range partners {
		partners[i].Normalize()
	}
	m.roster = partners

	var (
		autoID  string
		gen     uint64
		changed bool
	)
	if m.selectedLocked() == nil && len(partners) > 0 {
		autoID = partners[0].ID
		gen, changed = m.selectLocked(autoID)
	}
	m.mu.Unlock()

	m.logger.Debug("roster loaded", "user_id", profile.UserID, "count", len(partners))
	m.emit(Event{Kind: EventRoster}, Event{Kind: EventStatus})

	if !changed {
		return nil
	}
	m.emit(Event{Kind: EventSelection, PartnerID: autoID}, Event{Kind: EventMessages, PartnerID: autoID})
	return m.afterSelect(ctx, profile.UserID, autoID, gen)
}

// SelectPartner makes id the active conversation. When the selection
// changes, history is loaded and the conversation is marked read, both
// concurrently. Selecting the already selected partner does nothing.
func (m *Manager) SelectPartner(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.partnerIndex(id) < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownPartner, id)
	}
	gen, changed := m.selectLocked(id)
	m.mu.Unlock()

	if !changed {
		return nil
	}
	m.emit(Event{Kind: EventSelection, PartnerID: id}, Event{Kind: EventMessages, PartnerID: id}, Event{Kind: EventMenus})

	profile, ok := m.profile()
	if !ok {
		return nil
	}
	return m.afterSelect(ctx, profile.UserID, id, gen)
}

// selectLocked switches the selection and starts a new conversation
// generation. Caller holds m.mu.
func (m *Manager) selectLocked(id string) (uint64, bool) {
	if m.selectedID == id {
		return m.generation, false
	}
	m.selectedID = id
	m.generation++
	m.messages = nil
	m.replies = nil
	m.menus.Close(menu.Message)
	return m.generation, true
}

// clearSelectionLocked drops the selected conversation and starts a new
// generation so in-flight results for it are discarded. Caller holds m.mu.
func (m *Manager) clearSelectionLocked() {
	m.selectedID = ""
	m.generation++
	m.messages = nil
	m.replies = nil
	m.menus.Close(menu.Message)
}

// afterSelect runs the selection side effects. Each handles its own failure;
// a mark-read failure never stops the history load.
func (m *Manager) afterSelect(ctx context.Context, userID, partnerID string, gen uint64) error {
	var g errgroup.Group
	g.Go(func() error {
		return m.loadHistory(ctx, userID, partnerID, gen)
	})
	g.Go(func() error {
		m.markRead(ctx, userID, partnerID)
		return nil
	})
	return g.Wait()
}

// Roster returns the roster filtered by the current search query.
func (m *Manager) Roster() []chat.Partner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FilterPartners(m.roster, m.query)
}

// SearchRoster returns the roster filtered by query without storing it.
func (m *Manager) SearchRoster(query string) []chat.Partner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FilterPartners(m.roster, query)
}

// SetSearchQuery sets the query that Roster and Snapshot filter by.
func (m *Manager) SetSearchQuery(query string) {
	m.mu.Lock()
	m.query = query
	m.mu.Unlock()
	m.emit(Event{Kind: EventRoster})
}

// TotalUnread sums unread counts over the unfiltered roster.
func (m *Manager) TotalUnread() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sumUnread(m.roster)
}

// RequestRemoval puts the yes/no removal question for id to the user.
func (m *Manager) RequestRemoval(id string) error {
	m.mu.Lock()
	m.menus.Close(menu.Partner)
	if m.partnerIndex(id) < 0 {
		m.mu.Unlock()
		m.emit(Event{Kind: EventMenus})
		return fmt.Errorf("%w: %s", ErrUnknownPartner, id)
	}
	m.pendingRemoval = id
	m.mu.Unlock()
	m.emit(Event{Kind: EventMenus}, Event{Kind: EventRemoval, PartnerID: id})
	return nil
}

// PendingRemoval returns the partner id awaiting confirmation.
func (m *Manager) PendingRemoval() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingRemoval, m.pendingRemoval != ""
}

// ResolveRemoval answers the pending removal question. A confirmed removal
// drops the partner from the roster and, if it was selected, clears the
// selection and messages. The backend archive afterwards is best effort.
func (m *Manager) ResolveRemoval(ctx context.Context, confirmed bool) error {
	m.mu.Lock()
	id := m.pendingRemoval
	m.pendingRemoval = ""
	if id == "" {
		m.mu.Unlock()
		return ErrNoPendingRemoval
	}
	if !confirmed {
		m.mu.Unlock()
		m.emit(Event{Kind: EventRemoval, PartnerID: id})
		return nil
	}

	events := []Event{{Kind: EventRemoval, PartnerID: id}}
	if i := m.partnerIndex(id); i >= 0 {
		m.roster = append(m.roster[:i:i], m.roster[i+1:]...)
		events = append(events, Event{Kind: EventRoster, PartnerID: id})
	}
	if m.selectedID == id {
		m.clearSelectionLocked()
		events = append(events, Event{Kind: EventSelection}, Event{Kind: EventMessages})
	}
	m.mu.Unlock()
	m.emit(events...)

	m.logger.Info("partner removed", "partner_id", id)

	if profile, ok := m.profile(); ok {
		if err := m.backend.ArchivePartner(ctx, profile.UserID, id); err != nil {
			m.logger.Warn("archiving partner failed", "partner_id", id, "error", err)
		}
	}
	return nil
}

// RemovePartner asks confirm and removes id when the answer is yes.
func (m *Manager) RemovePartner(ctx context.Context, id string, confirm ConfirmFunc) error {
	if err := m.RequestRemoval(id); err != nil {
		return err
	}
	return m.ResolveRemoval(ctx, confirm(RemovalPrompt))
}
