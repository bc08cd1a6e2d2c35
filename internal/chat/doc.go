// Package chat defines the domain and wire types of the YoPuedo360 chat.
//
// Partner and Message are used both as JSON bodies of the conversation
// backend and as the in-memory state of the session manager. Message.State
// never crosses the wire; it only tags optimistic messages on the client.
package chat
