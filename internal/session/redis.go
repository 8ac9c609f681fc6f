package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xxxsen/concierge/internal/chat"
)

const keyPrefix = "concierge:session:"

type redisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore keeps conversations as JSON values. Every Save refreshes the
// key's ttl so idle sessions expire on the redis side.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) key(id string) string {
	return keyPrefix + id
}

func (s *redisStore) Get(ctx context.Context, id string) (chat.Conversation, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.Conversation{}, ErrNotFound
	}
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("get session: %w", err)
	}
	var conv chat.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return chat.Conversation{}, fmt.Errorf("decode session: %w", err)
	}
	return conv, nil
}

func (s *redisStore) Save(ctx context.Context, id string, conv chat.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Cleanup is a no-op, redis expires keys on its own.
func (s *redisStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	return 0, nil
}
