// Package session implements the conversation session state machine.
//
// A Manager owns the roster of conversation partners, the selected partner,
// the message list of the selected conversation and the session-local UI
// state (input, typing indicator, open menus, search query, status). The
// presentation layer only reads Snapshots and calls intents.
//
// # Concurrency
//
// State changes are serialized by a mutex. Backend calls run with the lock
// released, so a multi-step intent such as SendMessage may be interleaved
// with other intents between its steps. Each selection change starts a new
// conversation generation; history loads and send results that belong to an
// older generation are not applied to the current message list.
//
// # Failures
//
// Roster, history and send failures set a user-visible status. Mark-read,
// archive, correct, feedback, speak and copy failures are only logged.
// No failure leaves a half-sent message visible: a failed send is tagged
// failed and excluded from every read.
//
// # Notifications
//
// Every mutation publishes an Event. Subscribers re-read the Snapshot.
package session
