// ABOUTME: TokenSource hands out access tokens and refreshes them when they expire
// ABOUTME: Expiry is read from the unverified JWT exp claim; the server stays the authority

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenEnv overrides the stored access token when set.
const TokenEnv = "YOPUEDO_TOKEN"

// expirySkew refreshes tokens slightly before they expire.
const expirySkew = 30 * time.Second

// ErrSessionExpired is returned when the access token is no longer usable and
// there is no refresh token to renew it.
var ErrSessionExpired = errors.New("session expired, please log in again")

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// TokenSource implements backend.TokenSource over a FileStore.
type TokenSource struct {
	store     *FileStore
	refresher Refresher
	envToken  string
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	creds   Credentials
	loaded  bool
	invalid bool
}

// NewTokenSource reads tokens from store and renews them with refresher.
func NewTokenSource(store *FileStore, refresher Refresher, logger *slog.Logger) *TokenSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenSource{
		store:     store,
		refresher: refresher,
		envToken:  os.Getenv(TokenEnv),
		now:       time.Now,
		logger:    logger.With("component", "tokens"),
	}
}

// Token returns a usable access token, refreshing it first when it has
// expired or was invalidated.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if ts.envToken != "" {
		return ts.envToken, nil
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.loaded {
		creds, err := ts.store.Load()
		if err != nil {
			return "", err
		}
		ts.creds = creds
		ts.loaded = true
	}

	if !ts.invalid && !expired(ts.creds.Access, ts.now()) {
		return ts.creds.Access, nil
	}
	if ts.creds.Refresh == "" || ts.refresher == nil {
		return "", ErrSessionExpired
	}

	access, err := ts.refresher.Refresh(ctx, ts.creds.Refresh)
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	ts.creds.Access = access
	ts.invalid = false
	if err := ts.store.Save(ts.creds); err != nil {
		ts.logger.Warn("persisting refreshed token failed", "error", err)
	}
	ts.logger.Debug("access token refreshed")
	return access, nil
}

// Invalidate marks the current access token as rejected.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.invalid = true
	ts.mu.Unlock()
}

// Reset forgets cached credentials so the next Token call reloads the file.
func (ts *TokenSource) Reset() {
	ts.mu.Lock()
	ts.creds = Credentials{}
	ts.loaded = false
	ts.invalid = false
	ts.mu.Unlock()
}

// expired reports whether a JWT's exp claim is in the past. Tokens that are
// not JWTs or carry no exp are treated as valid.
func expired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Add(expirySkew).Before(claims.ExpiresAt.Time)
}
