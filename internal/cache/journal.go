// Package cache holds the Redis-backed read caches used by the API.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"io.winapps.worklog/internal/journal"
)

// JournalCache caches the persisted entry list of an owner, once for the
// owner's own view and once for the public view.
//
// Every Invalidate bumps a per-owner generation. A reader takes the
// generation before querying Postgres and passes it to Set, which refuses to
// write once the generation has moved, so a list read before a write
// committed never lands in the cache after that write's invalidation.
type JournalCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewJournalCache(client *redis.Client, ttl time.Duration) *JournalCache {
	return &JournalCache{client: client, ttl: ttl}
}

func journalKey(ownerID string, publicOnly bool) string {
	scope := "all"
	if publicOnly {
		scope = "public"
	}
	return fmt.Sprintf("journal:%s:%s", ownerID, scope)
}

func generationKey(ownerID string) string {
	return "journal_gen:" + ownerID
}

// Generation returns the owner's current cache generation, zero if the
// owner's journal was never invalidated.
func (c *JournalCache) Generation(ctx context.Context, ownerID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read journal cache generation: %w", err)
	}
	return gen, nil
}

// Get reports ok=false on a miss or when the cached value cannot be decoded.
func (c *JournalCache) Get(ctx context.Context, ownerID string, publicOnly bool) ([]journal.Entry, bool, error) {
	cached, err := c.client.Get(ctx, journalKey(ownerID, publicOnly)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read journal cache: %w", err)
	}

	var entries []journal.Entry
	if err := json.Unmarshal([]byte(cached), &entries); err != nil {
		return nil, false, nil
	}
	return entries, true, nil
}

// Set stores entries read at generation gen. It reports false without
// writing when the owner's journal was invalidated since then.
func (c *JournalCache) Set(ctx context.Context, ownerID string, publicOnly bool, gen int64, entries []journal.Entry) (bool, error) {
	if entries == nil {
		entries = []journal.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("failed to marshal journal cache: %w", err)
	}

	genKey := generationKey(ownerID)
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, journalKey(ownerID, publicOnly), data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to write journal cache: %w", err)
	}
	return stored, nil
}

// Invalidate bumps the owner's generation and drops both views of the
// owner's journal.
func (c *JournalCache) Invalidate(ctx context.Context, ownerID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(ownerID))
		pipe.Del(ctx, journalKey(ownerID, false), journalKey(ownerID, true))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate journal cache: %w", err)
	}
	return nil
}
