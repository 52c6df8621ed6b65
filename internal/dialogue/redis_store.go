package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore persists sessions as JSON values with a TTL, so an idle
// conversation also ages out server-side. The engine still applies its own
// lazy expiry on read; the TTL is only a storage backstop.
type RedisSessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisSessionStore creates a store writing through the given client.
// A non-positive ttl disables server-side expiry.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if client == nil {
		panic("dialogue: redis client required")
	}
	return &RedisSessionStore{redis: client, ttl: ttl}
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// Get loads and decodes the user's session, or (nil, nil) when absent.
func (s *RedisSessionStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dialogue: get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("dialogue: unmarshal session: %w", err)
	}
	return &sess, nil
}

// Put encodes and stores the session, refreshing the TTL.
func (s *RedisSessionStore) Put(ctx context.Context, userID string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("dialogue: marshal session: %w", err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, sessionKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("dialogue: set session: %w", err)
	}
	return nil
}

// Delete drops the user's session.
func (s *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("dialogue: delete session: %w", err)
	}
	return nil
}
