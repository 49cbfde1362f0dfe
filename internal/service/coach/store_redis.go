package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionTTL = time.Hour

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore keeps sessions as JSON values. Every save refreshes the TTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (s *redisStore) Load(ctx context.Context, gameID string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load coach session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode coach session: %w", err)
	}
	return &session, nil
}

func (s *redisStore) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("cannot save nil coach session")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode coach session: %w", err)
	}
	// 저장할 때마다 TTL 갱신하여 진행 중인 세션이 만료되지 않게 함
	if err := s.rdb.Set(ctx, sessionKey(session.GameID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save coach session: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, gameID string) error {
	return s.rdb.Del(ctx, sessionKey(gameID)).Err()
}
