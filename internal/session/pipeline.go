// ABOUTME: Optimistic send pipeline: insert, translate, request reply, confirm or fail
// ABOUTME: Results are only applied to the conversation generation the send started in

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
)

// Submit sends the pending input text.
func (m *Manager) Submit(ctx context.Context) error {
	m.mu.Lock()
	text := m.input
	m.mu.Unlock()
	return m.SendMessage(ctx, text)
}

// SendMessage sends text to the selected partner.
//
// The user message is appended immediately as pending. Its translation is
// then filled in and the partner reply appended after it. If either request
// fails the message is marked failed, which hides it from every read, and
// the status reports the error. Blank text, no selection or an unresolved
// identity make it a no-op. A second send while a reply is awaited returns
// ErrSendInProgress.
func (m *Manager) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	profile, ok := m.profile()
	if !ok {
		return nil
	}

	m.mu.Lock()
	if m.selectedLocked() == nil {
		m.mu.Unlock()
		return nil
	}
	if m.typing {
		m.mu.Unlock()
		return ErrSendInProgress
	}
	partnerID := m.selectedID
	gen := m.generation
	tempID := TempIDPrefix + m.newID()
	m.messages = append(m.messages, chat.Message{
		ID:              tempID,
		Text:            text,
		Sender:          chat.SenderUser,
		CreatedAt:       m.now(),
		ShowTranslation: true,
		State:           chat.StatePending,
	})
	m.input = ""
	m.typing = true
	m.mu.Unlock()
	m.emit(
		Event{Kind: EventMessages, PartnerID: partnerID},
		Event{Kind: EventInput},
		Event{Kind: EventTyping, PartnerID: partnerID},
	)

	reply, err := m.exchange(ctx, profile, partnerID, gen, tempID, text)

	m.mu.Lock()
	current := m.generation == gen
	events := []Event{{Kind: EventTyping, PartnerID: partnerID}}
	if err != nil {
		if i := m.messageIndex(tempID); current && i >= 0 {
			m.messages[i].State = chat.StateFailed
			events = append(events, Event{Kind: EventMessages, PartnerID: partnerID})
		}
		m.status = StatusSendError
		events = append(events, Event{Kind: EventStatus})
	} else {
		if i := m.messageIndex(tempID); current && i >= 0 {
			m.messages[i].State = chat.StateConfirmed
			if m.replies == nil {
				m.replies = make(map[string]string)
			}
			m.replies[tempID] = reply.ID
			if m.messageIndex(reply.ID) < 0 {
				m.messages = append(m.messages, *reply)
			}
			events = append(events, Event{Kind: EventMessages, PartnerID: partnerID})
		}
		if p := m.partnerIndex(partnerID); p >= 0 {
			m.roster[p].LastMessage = reply.Text
			m.roster[p].LastActivity = reply.CreatedAt
			events = append(events, Event{Kind: EventRoster, PartnerID: partnerID})
		}
	}
	m.typing = false
	m.mu.Unlock()
	m.emit(events...)

	if err != nil {
		m.logger.Error("sending message failed", "partner_id", partnerID, "error", err)
		return fmt.Errorf("sending message: %w", err)
	}
	if !current {
		m.logger.Debug("reply arrived after selection changed", "partner_id", partnerID)
	}
	return nil
}

// exchange runs the translate and reply requests of one send.
func (m *Manager) exchange(ctx context.Context, profile chat.Profile, partnerID string, gen uint64, tempID, text string) (*chat.Message, error) {
	translation, err := m.backend.Translate(ctx, text, profile.NativeLanguage)
	if err != nil {
		return nil, fmt.Errorf("translating: %w", err)
	}

	m.mu.Lock()
	i := m.messageIndex(tempID)
	applied := m.generation == gen && i >= 0
	if applied {
		m.messages[i].Translation = translation
	}
	m.mu.Unlock()
	if applied {
		m.emit(Event{Kind: EventMessages, PartnerID: partnerID})
	}

	reply, err := m.backend.SendMessage(ctx, profile.UserID, partnerID, chat.SendRequest{
		Text:           text,
		TargetLanguage: profile.TargetLanguage,
		NativeLanguage: profile.NativeLanguage,
		IdempotencyKey: tempID,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting reply: %w", err)
	}
	if reply == nil {
		return nil, fmt.Errorf("requesting reply: empty response")
	}

	msg := *reply
	msg.Sender = chat.SenderPartner
	msg.State = chat.StateConfirmed
	if msg.ID == "" {
		msg.ID = m.newID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now()
	}
	return &msg, nil
}
