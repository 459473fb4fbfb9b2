// Package session stores short-lived per-flow records in Redis, keyed by
// opaque tokens handed to the client. It backs the pending-registration and
// password-reset flows; nothing in here survives its TTL.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a token resolves to no record: the flow was
// never initiated, was already completed, or the record expired.
var ErrNoSession = errors.New("session not found or expired")

const (
	registrationKeyPrefix = "reg:"
	resetKeyPrefix        = "pwreset:"
)

// PendingRegistration is the ephemeral record held between "submit
// registration" and "verify or abandon". The password is hashed before it
// ever reaches the store; no durable User row exists yet.
type PendingRegistration struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Code         string    `json:"code"`
	IssuedAt     time.Time `json:"issued_at"`
}

// PasswordReset is the ephemeral record for an in-flight password reset.
type PasswordReset struct {
	UserID   uint      `json:"user_id"`
	Email    string    `json:"email"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store persists flow records in Redis with a store-level TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a session store. ttl bounds the lifetime of every record;
// individual codes inside a record can expire sooner (checked by callers).
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// NewToken returns a fresh opaque session token.
func NewToken() string {
	return uuid.NewString()
}

// SaveRegistration stores rec under the given token, resetting the TTL.
func (s *Store) SaveRegistration(ctx context.Context, token string, rec *PendingRegistration) error {
	return s.save(ctx, registrationKeyPrefix+token, rec)
}

// GetRegistration loads the pending registration for token.
// Returns ErrNoSession if the record is absent or expired.
func (s *Store) GetRegistration(ctx context.Context, token string) (*PendingRegistration, error) {
	var rec PendingRegistration
	if err := s.load(ctx, registrationKeyPrefix+token, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteRegistration removes the pending registration for token.
func (s *Store) DeleteRegistration(ctx context.Context, token string) error {
	return s.delete(ctx, registrationKeyPrefix+token)
}

// SaveReset stores rec under the given token, resetting the TTL.
func (s *Store) SaveReset(ctx context.Context, token string, rec *PasswordReset) error {
	return s.save(ctx, resetKeyPrefix+token, rec)
}

// GetReset loads the password-reset record for token.
// Returns ErrNoSession if the record is absent or expired.
func (s *Store) GetReset(ctx context.Context, token string) (*PasswordReset, error) {
	var rec PasswordReset
	if err := s.load(ctx, resetKeyPrefix+token, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteReset removes the password-reset record for token.
func (s *Store) DeleteReset(ctx context.Context, token string) error {
	return s.delete(ctx, resetKeyPrefix+token)
}

func (s *Store) save(ctx context.Context, key string, rec any) error {
	if s.rdb == nil {
		return fmt.Errorf("session store unavailable: no redis client")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

func (s *Store) load(ctx context.Context, key string, dest any) error {
	if s.rdb == nil {
		return fmt.Errorf("session store unavailable: no redis client")
	}
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNoSession
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (s *Store) delete(ctx context.Context, key string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, key).Err()
}
