// Package store provides persistent storage for yopuedo-devserver using SQLite.
//
// # Architecture
//
// Store is the interface the API layer depends on; SQLiteStore implements it
// on modernc.org/sqlite (pure Go, no cgo). The schema is created on open, WAL
// journaling is enabled and foreign keys cascade partner deletion to its
// messages.
//
// # Data Models
//
//   - User: learner account with bcrypt password hash and learning profile
//   - Partner: AI conversation partner with preview, activity time and unread count
//   - Message: one conversation turn, sender "user" or "ai"
//
// Timestamps are stored as RFC 3339 text in UTC.
//
// # Ownership
//
// Partner operations take the owning user ID and report partners of other
// users as ErrNotFound, so handlers never leak whether an ID exists.
//
// # Seeding
//
// SeedPartners creates the starter partners (Sarah, Mike, Emma) with an
// opening message each.
package store
