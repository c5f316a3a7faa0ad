package keyringstore

// Package keyringstore persists the session record in the OS keychain via
// zalando/go-keyring. Same composite-record layout as the file store, but
// tokens never touch the filesystem in plain text.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
)

const defaultService = "uniapply"

// sessionKey is the single keychain entry holding the composite record.
const sessionKey = "session"

type record struct {
	Credential domainauth.Credential `json:"credential"`
	User       *domainauth.User      `json:"user,omitempty"`
}

// Store implements ports.SessionStore backed by the OS keychain.
type Store struct {
	service string
}

// New creates a keychain-backed session store. An empty service name
// falls back to the default.
func New(service string) *Store {
	if service == "" {
		service = defaultService
	}
	return &Store{service: service}
}

func (s *Store) SetCredential(_ context.Context, cred domainauth.Credential) error {
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

func (s *Store) ClearUser(_ context.Context) error {
	rec := s.load()
	rec.User = nil
	return s.save(rec)
}

// Clear removes the keychain entry. A missing entry is not an error.
func (s *Store) Clear(_ context.Context) error {
	if err := keyring.Delete(s.service, sessionKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keychain entry: %w", err)
	}
	return nil
}

// load treats a missing or malformed entry as an empty session.
func (s *Store) load() record {
	data, err := keyring.Get(s.service, sessionKey)
	if err != nil {
		return record{}
	}
	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return record{}
	}
	return rec
}

func (s *Store) save(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if err := keyring.Set(s.service, sessionKey, string(data)); err != nil {
		return fmt.Errorf("set keychain entry: %w", err)
	}
	return nil
}
