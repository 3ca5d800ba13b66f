// Package cache holds the optional provider-username cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Resolver resolves the provider login behind a token.
type Resolver interface {
	ResolveUsername(ctx context.Context, token string) (string, error)
}

// UsernameStore keeps token -> login mappings in Redis. Keys are the
// SHA-256 of the token so plaintext tokens never reach Redis.
type UsernameStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewUsernameStore creates a store whose entries expire after ttl.
func NewUsernameStore(client *redis.Client, ttl time.Duration) *UsernameStore {
	return &UsernameStore{client: client, prefix: "gh:login:", ttl: ttl}
}

func (s *UsernameStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached login, or ok=false on a miss.
func (s *UsernameStore) Get(ctx context.Context, token string) (string, bool, error) {
	login, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached username: %w", err)
	}
	return login, true, nil
}

// Set stores login for token.
func (s *UsernameStore) Set(ctx context.Context, token, login string) error {
	if err := s.client.Set(ctx, s.key(token), login, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache username: %w", err)
	}
	return nil
}

// CachingResolver consults the store before delegating to next. Redis
// failures degrade to an uncached lookup.
type CachingResolver struct {
	next  Resolver
	store *UsernameStore
}

func NewCachingResolver(next Resolver, store *UsernameStore) *CachingResolver {
	return &CachingResolver{next: next, store: store}
}

func (r *CachingResolver) ResolveUsername(ctx context.Context, token string) (string, error) {
	login, ok, err := r.store.Get(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("username cache unavailable")
	}
	if ok {
		return login, nil
	}

	login, err = r.next.ResolveUsername(ctx, token)
	if err != nil {
		return "", err
	}
	if err := r.store.Set(ctx, token, login); err != nil {
		log.Warn().Err(err).Msg("username cache write failed")
	}
	return login, nil
}
