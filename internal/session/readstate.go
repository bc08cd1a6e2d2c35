// ABOUTME: History loading and read-state synchronization for the selected partner
// ABOUTME: Stale history results are discarded by comparing conversation generations

package session

import (
	"context"
	"fmt"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/menu"
)

// loadHistory replaces the message list with the partner's history, as long
// as the partner is still selected and no newer selection happened.
func (m *Manager) loadHistory(ctx context.Context, userID, partnerID string, gen uint64) error {
	history, err := m.backend.ListMessages(ctx, userID, partnerID)

	m.mu.Lock()
	if m.generation != gen || m.selectedID != partnerID {
		m.mu.Unlock()
		m.logger.Debug("discarding stale history", "partner_id", partnerID)
		return nil
	}
	if err != nil {
		m.status = StatusHistoryError
		m.mu.Unlock()
		m.logger.Error("loading messages failed", "partner_id", partnerID, "error", err)
		m.emit(Event{Kind: EventStatus})
		return fmt.Errorf("loading messages: %w", err)
	}
	m.messages = mergeHistory(history, m.messages, m.replies)
	m.mu.Unlock()

	m.emit(Event{Kind: EventMessages, PartnerID: partnerID})
	return nil
}

// mergeHistory returns history followed by the local messages it does not
// already contain, so a send started before the history arrived stays
// visible. A confirmed send whose reply is already in history is dropped:
// the server has stored it under its own id.
func mergeHistory(history, local []chat.Message, replies map[string]string) []chat.Message {
	seen := make(map[string]struct{}, len(history))
	out := make([]chat.Message, 0, len(history)+len(local))
	for _, msg := range history {
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		msg.State = chat.StateConfirmed
		out = append(out, msg)
	}
	for _, msg := range local {
		if msg.State == chat.StateFailed {
			continue
		}
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		if replyID, ok := replies[msg.ID]; ok {
			if _, stored := seen[replyID]; stored {
				continue
			}
		}
		out = append(out, msg)
	}
	return out
}

// MarkRead marks the conversation with id as read. It closes the partner menu.
func (m *Manager) MarkRead(ctx context.Context, id string) error {
	m.mu.Lock()
	closed := m.menus.Close(menu.Partner)
	known := m.partnerIndex(id) >= 0
	m.mu.Unlock()
	if closed {
		m.emit(Event{Kind: EventMenus})
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownPartner, id)
	}

	profile, ok := m.profile()
	if !ok {
		return nil
	}
	m.markRead(ctx, profile.UserID, id)
	return nil
}

// markRead tells the backend and zeroes only that roster entry on success.
// Failures are logged and otherwise ignored.
func (m *Manager) markRead(ctx context.Context, userID, partnerID string) {
	if err := m.backend.MarkRead(ctx, userID, partnerID); err != nil {
		m.logger.Warn("marking conversation read failed", "partner_id", partnerID, "error", err)
		return
	}

	m.mu.Lock()
	i := m.partnerIndex(partnerID)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.roster[i].UnreadCount = 0
	m.roster[i].Unread = false
	m.mu.Unlock()

	m.emit(Event{Kind: EventRoster, PartnerID: partnerID})
}
