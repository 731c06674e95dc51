// Package redis keeps the revocation ledger in Redis.
//
// Entries live in two keys: a sorted set of token ids scored by expiry in
// Unix milliseconds, and a hash of CBOR-encoded entries keyed by token id.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/homestock-server/internal/model"
)

var _ model.RevocationStore = (*RevocationRepository)(nil)

const (
	defaultPrefix = "homestock:revoked:"
	expirySuffix  = "expiry"
	entrySuffix   = "entries"
)

// deleteBatch caps how many ids one script call removes.
const deleteBatch = 500

// deleteExpired removes up to ARGV[2] ids scored at or below ARGV[1] from both
// keys and returns how many it removed.
var deleteExpired = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
if #ids == 0 then
  return 0
end
redis.call('ZREM', KEYS[1], unpack(ids))
redis.call('HDEL', KEYS[2], unpack(ids))
return #ids
`)

type RevocationRepository struct {
	client    redis.UniversalClient
	expiryKey string
	entryKey  string
}

// NewRevocationRepository checks connectivity and returns a ledger using
// keys under prefix. An empty prefix selects the default.
func NewRevocationRepository(ctx context.Context, client redis.UniversalClient, prefix string) (*RevocationRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = defaultPrefix
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RevocationRepository{
		client:    client,
		expiryKey: prefix + expirySuffix,
		entryKey:  prefix + entrySuffix,
	}, nil
}

func (r *RevocationRepository) Add(ctx context.Context, entry model.RevocationEntry) error {
	value, err := encMode.Marshal(storedEntry{
		Subject:   entry.Subject,
		ExpiresAt: entry.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode revocation entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddNX(ctx, r.expiryKey, redis.Z{Score: float64(entry.ExpiresAt.UnixMilli()), Member: entry.TokenID})
		pipe.HSetNX(ctx, r.entryKey, entry.TokenID, value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add revocation entry: %w", err)
	}
	return nil
}

func (r *RevocationRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	raw, err := r.client.HGet(ctx, r.entryKey, tokenID).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check revocation entry: %w", err)
	}

	var stored storedEntry
	if err := decMode.Unmarshal(raw, &stored); err != nil {
		return false, fmt.Errorf("failed to decode revocation entry: %w", err)
	}
	return true, nil
}

func (r *RevocationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	upper := strconv.FormatInt(now.UnixMilli(), 10)
	keys := []string{r.expiryKey, r.entryKey}

	var total int64
	for {
		removed, err := deleteExpired.Run(ctx, r.client, keys, upper, deleteBatch).Int64()
		if err != nil {
			return total, fmt.Errorf("failed to delete expired revocation entries: %w", err)
		}
		total += removed
		if removed < deleteBatch {
			return total, nil
		}
	}
}

func (r *RevocationRepository) Counts(ctx context.Context, now time.Time) (model.RevocationStats, error) {
	var total, active *redis.IntCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		total = pipe.ZCard(ctx, r.expiryKey)
		active = pipe.ZCount(ctx, r.expiryKey, "("+strconv.FormatInt(now.UnixMilli(), 10), "+inf")
		return nil
	})
	if err != nil {
		return model.RevocationStats{}, fmt.Errorf("failed to count revocation entries: %w", err)
	}

	stats := model.RevocationStats{Total: total.Val(), Active: active.Val()}
	stats.Expired = stats.Total - stats.Active
	return stats, nil
}
