// ABOUTME: Account provisioning for the development backend
// ABOUTME: Creates a user with a hashed password and seeds starter partners

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yopuedo360/yopuedo-chat/internal/auth"
	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/store"
)

// Account describes a user to create.
type Account struct {
	Username       string
	Password       string
	Email          string
	NativeLanguage string
	TargetLanguage string
	Level          string
}

// Provision creates the account and gives it the starter partners.
// Empty language fields take the chat defaults.
func Provision(ctx context.Context, st store.Store, acct Account, now time.Time) (*store.User, error) {
	if acct.Username == "" || acct.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	hash, err := auth.HashPassword(acct.Password)
	if err != nil {
		return nil, err
	}

	user := &store.User{
		ID:             uuid.New().String(),
		Username:       acct.Username,
		Email:          acct.Email,
		PasswordHash:   hash,
		NativeLanguage: orDefault(acct.NativeLanguage, chat.DefaultNativeLanguage),
		TargetLanguage: orDefault(acct.TargetLanguage, chat.DefaultTargetLanguage),
		CEFRLevel:      orDefault(acct.Level, chat.DefaultLevel),
		CreatedAt:      now,
	}
	if err := st.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user %s: %w", acct.Username, err)
	}

	if _, err := store.SeedPartners(ctx, st, user.ID, user.CEFRLevel, now); err != nil {
		return nil, err
	}
	return user, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
