// ABOUTME: Key handling for the chat TUI, dispatched by dialog, mode and focused pane
// ABOUTME: Synchronous session intents run inline, backend-bound ones become commands

package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch {
	case m.snap.PendingRemoval != nil:
		cmd = m.updateConfirm(msg)
	case m.mode == modeSearch:
		cmd = m.updateSearch(msg)
	default:
		cmd = m.updateNormal(msg)
	}
	return m, tea.Batch(cmd, m.refresh())
}

// updateConfirm answers the removal dialog; nothing else is reachable while
// it is open.
func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		return m.run("remove partner", func(ctx context.Context) error {
			return m.session.ResolveRemoval(ctx, true)
		})
	case "n", "N", "esc":
		return m.run("keep partner", func(ctx context.Context) error {
			return m.session.ResolveRemoval(ctx, false)
		})
	}
	return nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.search.Reset()
		m.session.SetSearchQuery("")
		m.leaveSearch()
		return nil
	case "enter":
		m.leaveSearch()
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.session.SetSearchQuery(m.search.Value())
	m.cursor = 0
	return cmd
}

func (m *Model) leaveSearch() {
	m.search.Blur()
	m.mode = modeNormal
}

func (m *Model) updateNormal(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		m.setFocus((m.focus + 1) % 3)
		return nil
	case "shift+tab":
		m.setFocus((m.focus + 2) % 3)
		return nil
	case "esc":
		m.session.DismissMenus()
		m.session.DismissNotice()
		m.session.ClearStatus()
		return nil
	}

	switch m.focus {
	case focusRoster:
		return m.updateRoster(msg)
	case focusChat:
		return m.updateChat(msg)
	default:
		return m.updateInput(msg)
	}
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "enter" {
		return m.run("send", m.session.Submit)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != m.snap.Input {
		m.session.SetInput(v)
	}
	return cmd
}

func (m *Model) updateRoster(msg tea.KeyMsg) tea.Cmd {
	if open := m.snap.PartnerMenu; open != "" {
		switch msg.String() {
		case "d":
			if err := m.session.RequestRemoval(open); err != nil {
				m.logger.Debug("removal request failed", "partner_id", open, "error", err)
			}
			return nil
		case "r":
			return m.run("mark read", func(ctx context.Context) error {
				return m.session.MarkRead(ctx, open)
			})
		}
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Partners)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(0, len(m.snap.Partners)-1)
	case "/":
		m.mode = modeSearch
		m.search.SetValue(m.snap.SearchQuery)
		m.search.CursorEnd()
		return m.search.Focus()
	case "m", " ":
		if id := m.cursorPartnerID(); id != "" {
			m.session.TogglePartnerMenu(id)
		}
	case "enter":
		id := m.cursorPartnerID()
		if id == "" {
			return nil
		}
		m.msgCursor = -1
		m.setFocus(focusInput)
		return m.run("select partner", func(ctx context.Context) error {
			return m.session.SelectPartner(ctx, id)
		})
	}
	return nil
}

func (m *Model) updateChat(msg tea.KeyMsg) tea.Cmd {
	if open := m.snap.MessageMenu; open != "" {
		if cmd, ok := m.messageAction(msg.String(), open); ok {
			return cmd
		}
	}

	n := len(m.snap.Messages)
	switch msg.String() {
	case "up", "k":
		if n == 0 {
			return nil
		}
		if m.msgCursor < 0 {
			m.msgCursor = n - 1
		}
		if m.msgCursor > 0 {
			m.msgCursor--
		}
		m.renderChat()
	case "down", "j":
		if m.msgCursor >= 0 && m.msgCursor < n-1 {
			m.msgCursor++
		} else {
			m.msgCursor = -1
		}
		m.renderChat()
	case "enter", "m", " ":
		if id := m.selectedMessageID(); id != "" {
			m.session.ToggleMessageMenu(id)
		}
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return cmd
	}
	return nil
}

// messageAction runs the menu entry bound to key for message id.
func (m *Model) messageAction(key, id string) (tea.Cmd, bool) {
	switch key {
	case "c":
		if err := m.session.CopyMessage(id); err != nil {
			m.logger.Debug("copy failed", "message_id", id, "error", err)
		}
		return nil, true
	case "t":
		if err := m.session.ToggleTranslation(id); err != nil {
			m.logger.Debug("toggle translation failed", "message_id", id, "error", err)
		}
		return nil, true
	case "x":
		return m.run("correct", func(ctx context.Context) error {
			_, err := m.session.CorrectMessage(ctx, id)
			return err
		}), true
	case "f":
		return m.run("feedback", func(ctx context.Context) error {
			_, err := m.session.MessageFeedback(ctx, id)
			return err
		}), true
	case "s":
		return m.run("speak", func(ctx context.Context) error {
			return m.session.SpeakMessage(ctx, id)
		}), true
	}
	return nil, false
}
