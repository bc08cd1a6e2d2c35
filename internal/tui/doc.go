// Package tui is the terminal presentation layer of yopuedo-chat.
//
// The Model renders a session.Manager snapshot as a roster pane, a
// conversation pane, an input line and a status bar. Keys that only touch
// session-local state call the manager directly; anything that talks to the
// backend runs as a tea.Cmd. Every session event triggers a redraw.
//
// Keys:
//
//	tab / shift+tab   cycle focus between input, roster and conversation
//	enter             send (input), open (roster), message menu (conversation)
//	/                 search the roster
//	m                 open the menu of the partner or message under the cursor
//	r, d              partner menu: mark read, delete
//	c, t, x, f, s     message menu: copy, translation, correct, feedback, speak
//	y, n              answer the delete confirmation
//	esc               close menus, notices and the status message
//	ctrl+c            quit
package tui
