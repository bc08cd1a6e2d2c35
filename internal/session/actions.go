// ABOUTME: Per-message and per-partner menu actions of the session
// ABOUTME: Every action closes its menu before doing any work

package session

import (
	"context"
	"fmt"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/menu"
)

// ToggleMessageMenu opens or closes the menu of message id.
func (m *Manager) ToggleMessageMenu(id string) bool {
	m.mu.Lock()
	open := m.menus.Toggle(menu.Message, id)
	m.mu.Unlock()
	m.emit(Event{Kind: EventMenus})
	return open
}

// TogglePartnerMenu opens or closes the menu of partner id.
func (m *Manager) TogglePartnerMenu(id string) bool {
	m.mu.Lock()
	open := m.menus.Toggle(menu.Partner, id)
	m.mu.Unlock()
	m.emit(Event{Kind: EventMenus})
	return open
}

// DismissMenus closes every open menu. Presentation layers call it on any
// interaction outside a menu.
func (m *Manager) DismissMenus() {
	m.mu.Lock()
	closed := m.menus.CloseAll()
	m.mu.Unlock()
	if closed {
		m.emit(Event{Kind: EventMenus})
	}
}

// takeMessage closes the message menu and returns a copy of message id
// along with the selected partner. Failed messages are not found.
func (m *Manager) takeMessage(id string) (chat.Message, *chat.Partner, error) {
	m.mu.Lock()
	closed := m.menus.Close(menu.Message)
	i := m.messageIndex(id)
	var (
		msg     chat.Message
		partner *chat.Partner
	)
	if i >= 0 && m.messages[i].State != chat.StateFailed {
		msg = m.messages[i]
		if p := m.selectedLocked(); p != nil {
			cp := *p
			partner = &cp
		}
	} else {
		i = -1
	}
	m.mu.Unlock()

	if closed {
		m.emit(Event{Kind: EventMenus})
	}
	if i < 0 {
		return chat.Message{}, nil, fmt.Errorf("%w: %s", ErrUnknownMessage, id)
	}
	return msg, partner, nil
}

// CopyMessage writes the message text to the clipboard. Clipboard failures
// are logged; copying always succeeds as far as the session is concerned.
func (m *Manager) CopyMessage(id string) error {
	msg, _, err := m.takeMessage(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	cb := m.clipboard
	m.mu.Unlock()
	if err := cb.Copy(msg.Text); err != nil {
		m.logger.Warn("copying message failed", "message_id", id, "error", err)
	}
	return nil
}

// ToggleTranslation flips the translation visibility of one message.
func (m *Manager) ToggleTranslation(id string) error {
	m.mu.Lock()
	closed := m.menus.Close(menu.Message)
	i := m.messageIndex(id)
	if i >= 0 && m.messages[i].State == chat.StateFailed {
		i = -1
	}
	if i >= 0 {
		m.messages[i].ShowTranslation = !m.messages[i].ShowTranslation
	}
	m.mu.Unlock()

	if closed {
		m.emit(Event{Kind: EventMenus})
	}
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownMessage, id)
	}
	m.emit(Event{Kind: EventMessages})
	return nil
}

// CorrectMessage requests a grammar correction of a user message and
// presents it as a notice. Failures are logged and leave the status alone.
func (m *Manager) CorrectMessage(ctx context.Context, id string) (*chat.Correction, error) {
	msg, _, err := m.takeMessage(id)
	if err != nil {
		return nil, err
	}
	if msg.Sender != chat.SenderUser {
		return nil, ErrNotUserMessage
	}
	profile, _ := m.identity.Current()

	correction, err := m.backend.Correct(ctx, msg.Text, targetLanguage(profile))
	if err != nil {
		m.logger.Warn("correcting message failed", "message_id", id, "error", err)
		return nil, fmt.Errorf("correcting message: %w", err)
	}

	c := *correction
	m.setNotice(&Notice{Kind: NoticeCorrection, MessageID: id, Correction: &c})
	return correction, nil
}

// MessageFeedback requests feedback on a message with the selected
// partner's role as context. Failures are logged and leave the status alone.
func (m *Manager) MessageFeedback(ctx context.Context, id string) (string, error) {
	msg, partner, err := m.takeMessage(id)
	if err != nil {
		return "", err
	}
	role := ""
	if partner != nil {
		role = partner.Role
	}

	feedback, err := m.backend.Feedback(ctx, msg.Text, role)
	if err != nil {
		m.logger.Warn("requesting feedback failed", "message_id", id, "error", err)
		return "", fmt.Errorf("requesting feedback: %w", err)
	}

	m.setNotice(&Notice{Kind: NoticeFeedback, MessageID: id, Feedback: feedback})
	return feedback, nil
}

// SpeakMessage reads a message aloud in the target language.
func (m *Manager) SpeakMessage(ctx context.Context, id string) error {
	msg, _, err := m.takeMessage(id)
	if err != nil {
		return err
	}
	profile, _ := m.identity.Current()

	m.mu.Lock()
	sp := m.speaker
	m.mu.Unlock()
	if err := sp.Speak(ctx, msg.Text, targetLanguage(profile)); err != nil {
		m.logger.Warn("speaking message failed", "message_id", id, "error", err)
		return fmt.Errorf("speaking message: %w", err)
	}
	return nil
}

func (m *Manager) setNotice(n *Notice) {
	m.mu.Lock()
	m.notice = n
	m.mu.Unlock()
	m.emit(Event{Kind: EventNotice})
}

func targetLanguage(p chat.Profile) string {
	if p.TargetLanguage == "" {
		return chat.DefaultTargetLanguage
	}
	return p.TargetLanguage
}
