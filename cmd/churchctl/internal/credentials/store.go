// Package credentials persists the churchctl session between invocations.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotSignedIn is returned by Load when no session has been saved.
var ErrNotSignedIn = errors.New("not signed in; run `churchctl login` first")

// Session is the saved token pair and the user it belongs to.  The active
// church is not saved: it lives on the server and is resolved on every run.
type Session struct {
	APIURL       string    `json:"api_url"`
	UserID       uint64    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	SavedAt      time.Time `json:"saved_at"`
}

// Store reads and writes one session file.
type Store struct {
	path string
}

// NewStore returns a store at path.  If path is empty, uses
// <user config dir>/churchctl/session.json.
func NewStore(path string) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config directory: %w", err)
		}
		path = filepath.Join(dir, "churchctl", "session.json")
	}
	return &Store{path: path}, nil
}

// Path returns the session file location.
func (s *Store) Path() string { return s.path }

// Load returns the saved session.
func (s *Store) Load() (Session, error) {
	var sess Session
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return sess, ErrNotSignedIn
	}
	if err != nil {
		return sess, fmt.Errorf("failed to read session: %w", err)
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return sess, fmt.Errorf("failed to parse session %s: %w", s.path, err)
	}
	if sess.RefreshToken == "" || sess.UserID == 0 {
		return sess, ErrNotSignedIn
	}
	return sess, nil
}

// Save writes sess with owner-only permissions.  The file is replaced
// atomically so an interrupted write never leaves half a token pair.
func (s *Store) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	sess.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear removes the saved session.  Clearing a missing session succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
