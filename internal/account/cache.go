package account

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedLookup serves owner display info from Redis and falls back to the
// wrapped Lookup on a miss. Redis errors are logged and treated as misses;
// lookup failures are never cached.
type CachedLookup struct {
	next   Lookup
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewCachedLookup wraps next with a Redis cache
func NewCachedLookup(next Lookup, client redis.UniversalClient, ttl time.Duration, prefix string, logger *zap.Logger) *CachedLookup {
	trimmedPrefix := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmedPrefix == "" {
		trimmedPrefix = "parkwise:owner"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{next: next, client: client, ttl: ttl, prefix: trimmedPrefix, logger: logger}
}

func (c *CachedLookup) key(ownerID string) string {
	return c.prefix + ":" + ownerID
}

// GetDisplayInfo implements Lookup
func (c *CachedLookup) GetDisplayInfo(ctx context.Context, ownerID string) (DisplayInfo, error) {
	raw, err := c.client.Get(ctx, c.key(ownerID)).Bytes()
	switch {
	case err == nil:
		var info DisplayInfo
		if jsonErr := json.Unmarshal(raw, &info); jsonErr == nil {
			return info, nil
		}
		c.logger.Warn("discarding malformed cached owner", zap.String("owner_account_id", ownerID))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("owner cache read failed", zap.String("owner_account_id", ownerID), zap.Error(err))
	}

	info, err := c.next.GetDisplayInfo(ctx, ownerID)
	if err != nil {
		return DisplayInfo{}, err
	}

	if payload, jsonErr := json.Marshal(info); jsonErr == nil {
		if setErr := c.client.Set(ctx, c.key(ownerID), payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("owner cache write failed", zap.String("owner_account_id", ownerID), zap.Error(setErr))
		}
	}
	return info, nil
}
