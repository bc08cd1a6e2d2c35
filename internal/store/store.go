// ABOUTME: Store interface and data types for yopuedo-devserver persistence
// ABOUTME: Defines User, Partner and Message records and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when creating a user whose username is taken
var ErrDuplicateUsername = errors.New("username already exists")

// ErrDuplicateMessage is returned when saving a message whose ID already exists
var ErrDuplicateMessage = errors.New("message already exists")

// User is a learner account with its learning profile
type User struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	NativeLanguage string
	TargetLanguage string
	CEFRLevel      string
	CreatedAt      time.Time
}

// Partner is an AI conversation partner owned by one user
type Partner struct {
	ID           string
	UserID       string
	Name         string
	Role         string
	Avatar       string
	Level        string
	LastMessage  string
	LastActivity time.Time
	UnreadCount  int
	CreatedAt    time.Time
}

// Message senders
const (
	SenderUser    = "user"
	SenderPartner = "ai"
)

// Message is one turn of a conversation between a user and a partner
type Message struct {
	ID          string
	PartnerID   string
	Text        string
	Translation string
	Sender      string // "user" or "ai"
	CreatedAt   time.Time
}

// Store defines the persistence operations of the development backend
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// Partners are always scoped to their owner; a partner owned by another
	// user is reported as ErrNotFound.
	CreatePartner(ctx context.Context, partner *Partner) error
	GetPartner(ctx context.Context, userID, partnerID string) (*Partner, error)
	ListPartners(ctx context.Context, userID string) ([]*Partner, error)
	DeletePartner(ctx context.Context, userID, partnerID string) error
	MarkRead(ctx context.Context, userID, partnerID string) error
	AddUnread(ctx context.Context, userID, partnerID string, n int) error

	// Messages. SaveMessage also moves the partner's preview and activity
	// time forward.
	SaveMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, partnerID string, limit int) ([]*Message, error)

	// Close releases any resources held by the store
	Close() error
}
