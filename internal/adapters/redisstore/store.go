package redisstore

// Package redisstore provides a Redis-backed session store for headless
// deployments (CI importers, kiosk terminals) where several processes
// share one signed-in session. TTL follows the credential expiry so stale
// sessions age out of Redis on their own.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
)

type record struct {
	Credential domainauth.Credential `json:"credential"`
	User       *domainauth.User      `json:"user,omitempty"`
}

// Store implements ports.SessionStore on a Redis key.
type Store struct {
	client redis.UniversalClient
	key    string
}

// New creates a Redis session store keyed by profile name, so separate
// logical sessions can coexist on one Redis instance.
func New(client redis.UniversalClient, profile string) *Store {
	if profile == "" {
		profile = "default"
	}
	return &Store{
		client: client,
		key:    "uniapply:session:" + profile,
	}
}

func (s *Store) SetCredential(ctx context.Context, cred domainauth.Credential) error {
	rec, err := s.load(ctx)
	if err != nil {
		return err
	}
	rec.Credential = cred
	return s.save(ctx, rec)
}

func (s *Store) Credential(ctx context.Context) (domainauth.Credential, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return domainauth.Credential{}, err
	}
	return rec.Credential, nil
}

func (s *Store) SetUser(ctx context.Context, user domainauth.User) error {
	rec, err := s.load(ctx)
	if err != nil {
		return err
	}
	rec.User = &user
	return s.save(ctx, rec)
}

func (s *Store) GetUser(ctx context.Context) (*domainauth.User, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return rec.User, nil
}

func (s *Store) ClearUser(ctx context.Context) error {
	rec, err := s.load(ctx)
	if err != nil {
		return err
	}
	rec.User = nil
	return s.save(ctx, rec)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// load treats a missing or malformed record as an empty session.
// Transport errors are surfaced; Redis may genuinely be down.
func (s *Store) load(ctx context.Context) (record, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return record{}, nil
		}
		return record{}, fmt.Errorf("redis get: %w", err)
	}
	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return record{}, nil
	}
	return rec, nil
}

// save writes the record with a TTL derived from credential expiry.
// Records without a usable expiry keep a short grace TTL rather than
// living forever.
func (s *Store) save(ctx context.Context, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	ttl := time.Until(rec.Credential.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, s.key, data, ttl).Err()
}
