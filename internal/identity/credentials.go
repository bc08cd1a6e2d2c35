// ABOUTME: On-disk credentials of the terminal client
// ABOUTME: Stored as JSON under the XDG config directory with owner-only permissions

package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoCredentials is returned when the user has not logged in.
var ErrNoCredentials = errors.New("not logged in")

// Credentials are the tokens obtained at login.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Access   string `json:"access"`
	Refresh  string `json:"refresh,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/yopuedo/credentials.json, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "yopuedo", "credentials.json"), nil
}

// FileStore persists Credentials to a single file.
type FileStore struct {
	path string
}

// NewFileStore stores credentials at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the credentials file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored credentials.
func (s *FileStore) Load() (Credentials, error) {
	var c Credentials
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return c, ErrNoCredentials
	}
	if err != nil {
		return c, fmt.Errorf("reading credentials: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing credentials: %w", err)
	}
	if c.Access == "" {
		return c, ErrNoCredentials
	}
	return c, nil
}

// Save writes credentials atomically with mode 0600.
func (s *FileStore) Save(c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Delete removes the credentials file. A missing file is not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}
