package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/cart"
)

// Redis stores sessions as JSON documents under <Prefix>session:<id>.
// Every save refreshes the TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed store.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key holding id.
func (s *Redis) Key(id string) string {
	return s.prefix + "session:" + id
}

// Get loads and decodes the session. Missing keys report false.
func (s *Redis) Get(ctx context.Context, id string) (*cart.Session, bool, error) {
	if s == nil || s.client == nil {
		return nil, false, errors.New("session: redis client not configured")
	}
	data, err := s.client.Get(ctx, s.Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var sess cart.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	if sess.Items == nil {
		sess.Items = []cart.LineItem{}
	}
	return &sess, true, nil
}

// Put encodes and stores the session.
func (s *Redis) Put(ctx context.Context, id string, sess *cart.Session) error {
	if s == nil || s.client == nil {
		return errors.New("session: redis client not configured")
	}
	if sess == nil {
		return errors.New("session: nil session")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.Key(id), data, s.ttl).Err()
}

// Delete removes the session key.
func (s *Redis) Delete(ctx context.Context, id string) error {
	if s == nil || s.client == nil {
		return errors.New("session: redis client not configured")
	}
	return s.client.Del(ctx, s.Key(id)).Err()
}

// Ping implements health.Checker.
func (s *Redis) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("session: redis client not configured")
	}
	return s.client.Ping(ctx).Err()
}
