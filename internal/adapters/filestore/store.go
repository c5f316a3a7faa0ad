package filestore

// Package filestore persists the session as a single composite JSON record
// on disk. The original browser client kept four independent storage keys
// (access token, refresh token, expiry, user snapshot); a single record
// written atomically removes the partially-corrupted states that layout
// allowed. Any unreadable or malformed record reads back as "no session".

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
)

// record is the on-disk session layout.
type record struct {
	Credential domainauth.Credential `json:"credential"`
	User       *domainauth.User      `json:"user,omitempty"`
}

// Store implements ports.SessionStore backed by a single JSON file.
type Store struct {
	path string
}

// New creates a file-backed session store at the given path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("filestore: path is required")
	}
	return &Store{path: path}, nil
}

// DefaultPath returns the conventional session file location under the
// user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "uniapply", "session.json"), nil
}

func (s *Store) SetCredential(ctx context.Context, cred domainauth.Credential) error {
	rec := s.load()
	rec.Credential = cred
	return s.save(rec)
}

func (s *Store) Credential(_ context.Context) (domainauth.Credential, error) {
	return s.load().Credential, nil
}

func (s *Store) SetUser(_ context.Context, user domainauth.User) error {
	rec := s.load()
	rec.User = &user
	return s.save(rec)
}

func (s *Store) GetUser(_ context.Context) (*domainauth.User, error) {
	return s.load().User, nil
}

// ClearUser drops only the user half of the record. The session manager
// clears both halves together through Clear.
func (s *Store) ClearUser(_ context.Context) error {
	rec := s.load()
	rec.User = nil
	return s.save(rec)
}

// Clear removes the credential and any derived persisted user data.
// Clearing an absent record is a no-op.
func (s *Store) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// load reads the record, treating a missing or corrupt file as empty.
// A corrupt record must read as "session invalid", never crash the
// lifecycle.
func (s *Store) load() record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return record{}
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}
	}
	return rec
}

// save writes the record atomically via temp file + rename, so a crash
// mid-write never leaves a torn record behind.
func (s *Store) save(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}
