// ABOUTME: Rendering for the chat TUI: header, roster, conversation, input and status bar
// ABOUTME: The removal confirmation replaces the whole screen while it is open

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/session"
	"github.com/yopuedo360/yopuedo-chat/internal/textfmt"
)

const (
	headerHeight    = 1
	inputHeight     = 3
	statusBarHeight = 1
	maxRosterWidth  = 36
)

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if p := m.snap.PendingRemoval; p != nil {
		return m.renderConfirm(p)
	}

	rosterW, chatW := m.paneWidths()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.paneFor(focusRoster).Width(rosterW-2).Height(m.bodyHeight()-2).Render(m.renderRoster()),
		m.paneFor(focusChat).Width(chatW-2).Height(m.bodyHeight()-2).Render(m.renderConversation()),
	)

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.paneFor(focusInput).Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) paneFor(f focus) lipgloss.Style {
	if m.focus == f && m.mode == modeNormal {
		return focusedPaneStyle
	}
	if f == focusRoster && m.mode == modeSearch {
		return focusedPaneStyle
	}
	return paneStyle
}

func (m Model) paneWidths() (roster, conversation int) {
	roster = min(maxRosterWidth, m.width/3)
	return roster, m.width - roster
}

func (m Model) rosterInnerWidth() int {
	roster, _ := m.paneWidths()
	return max(0, roster-2)
}

func (m Model) bodyHeight() int {
	return max(4, m.height-headerHeight-inputHeight-statusBarHeight)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("YoPuedo360 Chat")
	var parts []string
	parts = append(parts, title)
	if m.snap.Resolved {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%s · %s → %s · %s",
			m.snap.Profile.Username, m.snap.Profile.NativeLanguage, m.snap.Profile.TargetLanguage, m.snap.Profile.Level)))
	}
	if n := m.snap.TotalUnread; n > 0 {
		parts = append(parts, badgeStyle.Render(fmt.Sprintf("%d unread", n)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderRoster() string {
	w := m.rosterInnerWidth()
	var b strings.Builder

	if m.mode == modeSearch {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	} else if q := m.snap.SearchQuery; q != "" {
		b.WriteString(dimStyle.Render(textfmt.Truncate("/ "+q, w)))
		b.WriteString("\n")
	}

	switch {
	case !m.snap.Resolved:
		b.WriteString(dimStyle.Render("Signing in..."))
		return b.String()
	case m.snap.Loading && len(m.snap.Partners) == 0:
		b.WriteString(dimStyle.Render("Loading conversations..."))
		return b.String()
	case len(m.snap.Partners) == 0 && m.snap.SearchQuery != "":
		b.WriteString(dimStyle.Render("No matches"))
		return b.String()
	case len(m.snap.Partners) == 0:
		b.WriteString(dimStyle.Render("No conversations yet"))
		return b.String()
	}

	now := m.now()
	for i, p := range m.snap.Partners {
		b.WriteString(m.renderPartner(p, i, w, now))
	}
	return b.String()
}

func (m Model) renderPartner(p chat.Partner, i, w int, now time.Time) string {
	var b strings.Builder

	when := textfmt.Activity(now, p.LastActivity)
	badge := ""
	if p.Unread {
		badge = " " + badgeStyle.Render(fmt.Sprint(p.UnreadCount))
	}
	name := textfmt.Truncate(strings.TrimSpace(p.Avatar+" "+p.Name), max(1, w-lipgloss.Width(badge)-len(when)-1))
	line := name + badge
	if gap := w - lipgloss.Width(line) - lipgloss.Width(when); gap > 0 {
		line += strings.Repeat(" ", gap) + dimStyle.Render(when)
	}

	switch {
	case m.snap.Selected != nil && m.snap.Selected.ID == p.ID:
		line = selectedStyle.Render(line)
	case m.focus == focusRoster && i == m.cursor:
		line = cursorStyle.Render(line)
	}
	b.WriteString(line)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(textfmt.Preview(p.LastMessage, max(1, w-2))))
	b.WriteString("\n")

	if m.snap.PartnerMenu == p.ID {
		b.WriteString(menuStyle.Render("[r] mark read  [d] delete"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderConversation() string {
	sel := m.snap.Selected
	if sel == nil {
		return dimStyle.Render("Select a conversation to start chatting.")
	}

	var b strings.Builder
	header := titleStyle.Render(sel.Name)
	if sel.Role != "" {
		header += dimStyle.Render(" · " + sel.Role)
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.chat.View())
	b.WriteString("\n")
	if m.snap.Typing {
		b.WriteString(dimStyle.Render(sel.Name + " is typing..."))
	}
	if n := m.renderNotice(); n != "" {
		b.WriteString("\n")
		b.WriteString(n)
	}
	return b.String()
}

// renderChat refreshes the scrollable message list from the snapshot.
func (m *Model) renderChat() {
	_, chatW := m.paneWidths()
	w := max(10, chatW-4)
	m.chat.Width = w
	m.chat.Height = max(1, m.bodyHeight()-2-2-m.noticeHeight())

	name := "Partner"
	if m.snap.Selected != nil {
		name = m.snap.Selected.Name
	}
	cur := m.msgCursor
	if cur < 0 {
		cur = len(m.snap.Messages) - 1
	}

	var b strings.Builder
	for i, msg := range m.snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := "  "
		if m.focus == focusChat && i == cur {
			marker = "▸ "
		}
		b.WriteString(marker + renderMessage(msg, name, w-2, m.snap.MessageMenu == msg.ID))
	}
	if m.snap.Loading && len(m.snap.Messages) == 0 {
		b.WriteString(dimStyle.Render("Loading messages..."))
	}
	m.chat.SetContent(b.String())

	if n := len(m.snap.Messages); n != m.shown || m.msgCursor < 0 {
		m.chat.GotoBottom()
		m.shown = n
	}
}

func renderMessage(msg chat.Message, partnerName string, w int, menuOpen bool) string {
	label := partnerRoleStyle.Render(partnerName)
	if msg.Sender == chat.SenderUser {
		label = userRoleStyle.Render("You")
	}

	body := lipgloss.NewStyle().Width(max(1, w)).Render(textfmt.PlainText(msg.Text))
	lines := []string{label, body}
	if msg.State == chat.StatePending {
		lines = append(lines, pendingStyle.Render("sending..."))
	}
	if msg.ShowTranslation && msg.Translation != "" {
		lines = append(lines, translationStyle.Width(max(1, w)).Render(msg.Translation))
	}
	if menuOpen {
		lines = append(lines, menuStyle.Render(messageMenu(msg)))
	}
	return strings.Join(lines, "\n  ")
}

func messageMenu(msg chat.Message) string {
	items := []string{"[c] copy", "[t] translation"}
	if msg.Sender == chat.SenderUser {
		items = append(items, "[x] correct", "[f] feedback")
	}
	items = append(items, "[s] speak")
	return strings.Join(items, "  ")
}

func (m Model) renderNotice() string {
	n := m.snap.Notice
	if n == nil {
		return ""
	}
	_, chatW := m.paneWidths()
	style := noticeStyle.Width(max(10, chatW-6))

	switch n.Kind {
	case session.NoticeCorrection:
		if n.Correction == nil {
			return ""
		}
		return style.Render(fmt.Sprintf("Correction\n%s\n→ %s\n%s",
			dimStyle.Render(n.Correction.Original), n.Correction.Corrected, translationStyle.Render(n.Correction.Explanation)))
	case session.NoticeFeedback:
		return style.Render("Feedback\n" + n.Feedback)
	}
	return ""
}

func (m Model) noticeHeight() int {
	n := m.renderNotice()
	if n == "" {
		return 0
	}
	return lipgloss.Height(n) + 1
}

func (m Model) renderStatusBar() string {
	left := m.helpText()
	if s := m.snap.Status; s != "" {
		left = errorStyle.Render(s) + "  " + helpStyle.Render("esc to dismiss")
	}
	return statusBarStyle.Width(m.width).Render(left)
}

func (m Model) helpText() string {
	if m.mode == modeSearch {
		return helpStyle.Render("enter keep filter · esc clear")
	}
	switch m.focus {
	case focusRoster:
		return helpStyle.Render("tab focus · ↑/↓ move · enter open · m menu · / search · ctrl+c quit")
	case focusChat:
		return helpStyle.Render("tab focus · ↑/↓ move · enter menu · esc close · ctrl+c quit")
	default:
		return helpStyle.Render("tab focus · enter send · esc close · ctrl+c quit")
	}
}

func (m Model) renderConfirm(p *chat.Partner) string {
	msg := lipgloss.NewStyle().Bold(true).Render(session.RemovalPrompt)
	who := dimStyle.Render(strings.TrimSpace(p.Avatar + " " + p.Name))
	opts := dialogOptionStyle.Render("[y] Delete") + "  " + dialogOptionStyle.Render("[n] Cancel")
	box := dialogStyle.Render(msg + "\n" + who + "\n\n" + opts)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
