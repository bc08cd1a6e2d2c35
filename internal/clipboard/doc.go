// Package clipboard copies chat messages to the user's clipboard.
//
// The OS clipboard is used when available. Over SSH, or when it fails, the
// text is sent to the terminal as an OSC 52 escape sequence instead.
package clipboard
