// ABOUTME: Password hashing for development accounts
// ABOUTME: bcrypt with a dummy comparison on unknown users to keep timing flat

package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned when a username or password does not match
var ErrBadCredentials = errors.New("invalid username or password")

// dummyHash is compared against when the user does not exist
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("yopuedo-dummy"), bcrypt.DefaultCost)
	return hash
})

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with hash. An empty hash means the user
// was not found; a comparison still runs so both paths cost the same.
func CheckPassword(hash, password string) error {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}
