package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"io.winapps.worklog/internal/journal"
)

const keyPrefix = "pending_entries:"

// RedisTracker keeps one hash per owner, field = entry id, value = JSON
// record. The hash expires maxAge after the most recent submission.
type RedisTracker struct {
	client *redis.Client
	maxAge time.Duration
	now    func() time.Time
}

func NewRedisTracker(client *redis.Client, maxAge time.Duration) *RedisTracker {
	return &RedisTracker{client: client, maxAge: maxAge, now: time.Now}
}

func ownerKey(ownerID string) string {
	return keyPrefix + ownerID
}

func (t *RedisTracker) Begin(ctx context.Context, ownerID string, entry journal.Entry) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(record{Token: token, OwnerID: ownerID, Entry: entry, SubmittedAt: t.now()})
	if err != nil {
		return "", fmt.Errorf("failed to marshal pending entry: %w", err)
	}

	key := ownerKey(ownerID)
	pipe := t.client.TxPipeline()
	pipe.HSet(ctx, key, entry.ID, data)
	pipe.Expire(ctx, key, t.maxAge)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to track pending entry: %w", err)
	}
	return token, nil
}

// settleAttempts bounds the retries when the owner's hash changes between
// reading the record and deleting it.
const settleAttempts = 5

// Settle removes the record for entryID if it still belongs to token.
func (t *RedisTracker) Settle(ctx context.Context, ownerID, entryID, token string) error {
	key := ownerKey(ownerID)
	settle := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, entryID).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var r record
		if err := json.Unmarshal([]byte(raw), &r); err == nil && r.Token != token {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, key, entryID)
			return nil
		})
		return err
	}

	for i := 0; i < settleAttempts; i++ {
		err := t.client.Watch(ctx, settle, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to settle pending entry: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to settle pending entry: %w", redis.TxFailedErr)
}

func (t *RedisTracker) List(ctx context.Context, ownerID string) ([]journal.Entry, error) {
	values, err := t.client.HGetAll(ctx, ownerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}

	now := t.now()
	records := make([]record, 0, len(values))
	for _, raw := range values {
		var r record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			continue
		}
		if r.stale(now, t.maxAge) {
			continue
		}
		records = append(records, r)
	}
	return entriesOf(records), nil
}

// Sweep removes records older than maxAge from every owner hash and returns
// how many were dropped.
func (t *RedisTracker) Sweep(ctx context.Context) (int, error) {
	now := t.now()
	removed := 0

	iter := t.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		values, err := t.client.HGetAll(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to read %s: %w", key, err)
		}

		var stale []string
		for field, raw := range values {
			var r record
			if err := json.Unmarshal([]byte(raw), &r); err != nil || r.stale(now, t.maxAge) {
				stale = append(stale, field)
			}
		}
		if len(stale) == 0 {
			continue
		}
		if err := t.client.HDel(ctx, key, stale...).Err(); err != nil {
			return removed, fmt.Errorf("failed to sweep %s: %w", strings.TrimPrefix(key, keyPrefix), err)
		}
		removed += len(stale)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan pending entries: %w", err)
	}
	return removed, nil
}
