package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/chess/rules"
)

const defaultCacheTTL = 24 * time.Hour

// Cache is a read-through Redis cache in front of another oracle. Redis
// failures fall back to the wrapped oracle.
type Cache struct {
	next      Oracle
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	logger    *zap.Logger
}

// NewCache wraps next. namespace separates results produced under different
// search settings (e.g. "d15").
func NewCache(next Oracle, rdb *redis.Client, namespace string, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl, namespace: strings.TrimSpace(namespace), logger: logger}
}

// cacheKey ignores the move clocks, which do not change the evaluation.
func (c *Cache) cacheKey(pos *rules.Position) string {
	fields := strings.Fields(pos.FEN())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, " ")))
	return "coach:eval:" + c.namespace + ":" + hex.EncodeToString(sum[:16])
}

func (c *Cache) Evaluate(ctx context.Context, pos *rules.Position) (Evaluation, error) {
	if pos == nil {
		return Evaluation{}, ErrNoResult
	}
	key := c.cacheKey(pos)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ev Evaluation
		if jerr := json.Unmarshal(raw, &ev); jerr == nil {
			return ev, nil
		}
		c.logger.Warn("eval_cache_corrupt", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("eval_cache_get_failed", zap.String("key", key), zap.Error(err))
	}

	ev, err := c.next.Evaluate(ctx, pos)
	if err != nil {
		return Evaluation{}, err
	}
	payload, err := json.Marshal(ev)
	if err == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.Warn("eval_cache_set_failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return ev, nil
}
