package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache remembers which uid a verified ID token belongs to, so most
// requests skip token verification. Tokens are stored hashed.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl, now: time.Now}
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

func (s *SessionCache) Lookup(ctx context.Context, token string) (string, bool, error) {
	uid, err := s.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session cache: %w", err)
	}
	return uid, true, nil
}

// Remember stores uid for token until the configured TTL or the token's own
// expiry, whichever comes first. Already expired tokens are not stored.
func (s *SessionCache) Remember(ctx context.Context, token, uid string, expiresAt time.Time) error {
	ttl := s.ttl
	if !expiresAt.IsZero() {
		if left := expiresAt.Sub(s.now()); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, sessionKey(token), uid, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session cache: %w", err)
	}
	return nil
}
