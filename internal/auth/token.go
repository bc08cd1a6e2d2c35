// ABOUTME: JWT token issuing and verification for the development API
// ABOUTME: Uses HS256 signing with a "typ" claim separating access and refresh tokens

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrWrongType    = errors.New("wrong token type")
)

// TokenType distinguishes access tokens from refresh tokens
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string, want TokenType) (userID string, err error)
}

// JWTIssuer issues and verifies HS256 signed JWTs
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTIssuer creates a new issuer with the given secret and token lifetimes
func NewJWTIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Verify validates the token, checks its type and extracts the user ID from the "sub" claim
func (v *JWTIssuer) Verify(tokenString string, want TokenType) (userID string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	typ, _ := claims["typ"].(string)
	if TokenType(typ) != want {
		return "", fmt.Errorf("%w: got %q, want %q", ErrWrongType, typ, want)
	}

	return sub, nil
}

// Generate creates a token of the given type for userID
func (v *JWTIssuer) Generate(userID string, typ TokenType) (string, error) {
	ttl := v.accessTTL
	if typ == TokenRefresh {
		ttl = v.refreshTTL
	}

	now := v.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"typ": string(typ),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// IssuePair creates an access token and a refresh token for userID
func (v *JWTIssuer) IssuePair(userID string) (access, refresh string, err error) {
	if access, err = v.Generate(userID, TokenAccess); err != nil {
		return "", "", fmt.Errorf("signing access token: %w", err)
	}
	if refresh, err = v.Generate(userID, TokenRefresh); err != nil {
		return "", "", fmt.Errorf("signing refresh token: %w", err)
	}
	return access, refresh, nil
}
