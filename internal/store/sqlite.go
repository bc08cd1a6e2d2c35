// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user, partner and message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Pragmas are per connection; a single connection keeps foreign keys on
	// and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			email           TEXT NOT NULL DEFAULT '',
			password_hash   TEXT NOT NULL,
			native_language TEXT NOT NULL,
			target_language TEXT NOT NULL,
			cefr_level      TEXT NOT NULL,
			created_at      TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS partners (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			name          TEXT NOT NULL,
			role          TEXT NOT NULL,
			avatar        TEXT NOT NULL DEFAULT '',
			level         TEXT NOT NULL,
			last_message  TEXT NOT NULL DEFAULT '',
			last_activity TEXT NOT NULL,
			unread_count  INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_partners_user ON partners(user_id, last_activity DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			partner_id  TEXT NOT NULL,
			text        TEXT NOT NULL,
			translation TEXT NOT NULL DEFAULT '',
			sender      TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			FOREIGN KEY (partner_id) REFERENCES partners(id) ON DELETE CASCADE,
			CHECK (sender IN ('user', 'ai'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_partner_created
			ON messages(partner_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed")
}

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t, nil
}

// CreateUser inserts a user. Returns ErrDuplicateUsername if the username is taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, native_language, target_language, cefr_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.NativeLanguage,
		user.TargetLanguage,
		user.CEFRLevel,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID, "username", user.Username)
	return nil
}

const userColumns = `id, username, email, password_hash, native_language, target_language, cefr_level, created_at`

// GetUser retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var createdAtStr string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.NativeLanguage,
		&user.TargetLanguage,
		&user.CEFRLevel,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if user.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePartner inserts a partner for its owning user
func (s *SQLiteStore) CreatePartner(ctx context.Context, partner *Partner) error {
	query := `
		INSERT INTO partners (id, user_id, name, role, avatar, level, last_message, last_activity, unread_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		partner.ID,
		partner.UserID,
		partner.Name,
		partner.Role,
		partner.Avatar,
		partner.Level,
		partner.LastMessage,
		formatTime(partner.LastActivity),
		partner.UnreadCount,
		formatTime(partner.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting partner: %w", err)
	}

	s.logger.Debug("created partner", "id", partner.ID, "user_id", partner.UserID, "name", partner.Name)
	return nil
}

const partnerColumns = `id, user_id, name, role, avatar, level, last_message, last_activity, unread_count, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPartner(row scanner) (*Partner, error) {
	var p Partner
	var lastActivityStr, createdAtStr string

	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Role,
		&p.Avatar,
		&p.Level,
		&p.LastMessage,
		&lastActivityStr,
		&p.UnreadCount,
		&createdAtStr,
	); err != nil {
		return nil, err
	}

	var err error
	if p.LastActivity, err = parseTime("last_activity", lastActivityStr); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPartner retrieves a partner owned by userID.
// Returns ErrNotFound if it doesn't exist or belongs to someone else.
func (s *SQLiteStore) GetPartner(ctx context.Context, userID, partnerID string) (*Partner, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE id = ? AND user_id = ?`,
		partnerID, userID,
	)
	p, err := scanPartner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying partner: %w", err)
	}
	return p, nil
}

// ListPartners returns the user's partners, most recent activity first
func (s *SQLiteStore) ListPartners(ctx context.Context, userID string) ([]*Partner, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE user_id = ? ORDER BY last_activity DESC, rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying partners: %w", err)
	}
	defer rows.Close()

	partners := []*Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning partner: %w", err)
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating partners: %w", err)
	}
	return partners, nil
}

// DeletePartner removes a partner and its messages.
// Returns ErrNotFound if the user owns no such partner.
func (s *SQLiteStore) DeletePartner(ctx context.Context, userID, partnerID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM partners WHERE id = ? AND user_id = ?`,
		partnerID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting partner: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	s.logger.Debug("deleted partner", "id", partnerID, "user_id", userID)
	return nil
}

// MarkRead zeroes the partner's unread count
func (s *SQLiteStore) MarkRead(ctx context.Context, userID, partnerID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE partners SET unread_count = 0 WHERE id = ? AND user_id = ?`,
		partnerID, userID,
	)
	if err != nil {
		return fmt.Errorf("marking partner read: %w", err)
	}
	return requireRow(result)
}

// AddUnread increments the partner's unread count by n
func (s *SQLiteStore) AddUnread(ctx context.Context, userID, partnerID string, n int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE partners SET unread_count = unread_count + ? WHERE id = ? AND user_id = ?`,
		n, partnerID, userID,
	)
	if err != nil {
		return fmt.Errorf("adding unread: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveMessage stores a message and updates the partner's preview in the same
// transaction. Returns ErrNotFound when the partner does not exist.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		`UPDATE partners SET last_message = ?, last_activity = ? WHERE id = ?`,
		msg.Text, formatTime(msg.CreatedAt), msg.PartnerID,
	)
	if err != nil {
		return fmt.Errorf("updating partner preview: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, partner_id, text, translation, sender, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		msg.ID,
		msg.PartnerID,
		msg.Text,
		msg.Translation,
		msg.Sender,
		formatTime(msg.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing message: %w", err)
	}
	return nil
}

// ListMessages returns the newest limit messages of a partner in
// chronological order. A limit of zero or less returns all of them.
func (s *SQLiteStore) ListMessages(ctx context.Context, partnerID string, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, partner_id, text, translation, sender, created_at FROM (
			SELECT rowid AS seq, id, partner_id, text, translation, sender, created_at
			FROM messages
			WHERE partner_id = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, partnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		var msg Message
		var createdAtStr string
		if err := rows.Scan(&msg.ID, &msg.PartnerID, &msg.Text, &msg.Translation, &msg.Sender, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if msg.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return messages, nil
}

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)
