// ABOUTME: Provider resolves the authenticated user and exposes the learning profile
// ABOUTME: The session treats an unresolved provider as "identity still loading"

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yopuedo360/yopuedo-chat/internal/chat"
)

// UserFetcher fetches the authenticated user.
type UserFetcher interface {
	Me(ctx context.Context) (*chat.User, error)
}

// Authenticator exchanges a username and password for tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*chat.TokenPair, error)
}

// Provider holds the resolved profile of the current user.
type Provider struct {
	fetcher UserFetcher
	logger  *slog.Logger

	mu       sync.RWMutex
	profile  chat.Profile
	resolved bool
}

// NewProvider creates an unresolved provider.
func NewProvider(fetcher UserFetcher, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		fetcher: fetcher,
		logger:  logger.With("component", "identity"),
	}
}

// Resolve fetches the current user and marks the provider resolved. On
// failure the provider stays unresolved.
func (p *Provider) Resolve(ctx context.Context) (chat.Profile, error) {
	user, err := p.fetcher.Me(ctx)
	if err != nil {
		return chat.Profile{}, fmt.Errorf("resolving identity: %w", err)
	}
	profile := user.Profile()

	p.mu.Lock()
	p.profile = profile
	p.resolved = true
	p.mu.Unlock()

	p.logger.Info("identity resolved",
		"user_id", profile.UserID,
		"native", profile.NativeLanguage,
		"target", profile.TargetLanguage,
		"level", profile.Level)
	return profile, nil
}

// Current returns the profile and whether identity has resolved.
func (p *Provider) Current() (chat.Profile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.profile, p.resolved
}

// Reset returns the provider to the unresolved state.
func (p *Provider) Reset() {
	p.mu.Lock()
	p.profile = chat.Profile{}
	p.resolved = false
	p.mu.Unlock()
}

// Login authenticates and stores the resulting tokens.
func Login(ctx context.Context, auth Authenticator, store *FileStore, username, password string) error {
	pair, err := auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	return store.Save(Credentials{
		Username: username,
		Access:   pair.Access,
		Refresh:  pair.Refresh,
	})
}
