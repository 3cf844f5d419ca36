package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "story-activity:"

// SessionStore persists per-reader traversal state keyed by session. The
// session key is the user id for authenticated readers and an opaque
// client token for anonymous ones.
type SessionStore interface {
	// Get returns the session's state. A missing or unreadable record
	// yields the empty state, never an error the caller must branch on.
	Get(ctx context.Context, session string) (State, error)
	Save(ctx context.Context, session string, state State) error
	Delete(ctx context.Context, session string) error
	// Sessions lists every stored session key.
	Sessions(ctx context.Context) ([]string, error)
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ SessionStore = (*redisSessionStore)(nil)

// NewRedisSessionStore builds a store over an existing client. ttl bounds
// how long an idle session survives; every save renews it.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) SessionStore {
	return &redisSessionStore{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSessionStore"),
	}
}

func sessionKey(session string) string {
	return keyPrefix + session
}

// decodeState tolerates corrupt records: a session that cannot be parsed
// restarts from the empty state instead of wedging the reader.
func decodeState(data []byte, logger *zap.Logger) State {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("Discarding unreadable session state", zap.Error(err))
		return Empty()
	}
	if state.PageHistory == nil {
		state.PageHistory = []PageVisit{}
	}
	return state
}

func (s *redisSessionStore) Get(ctx context.Context, session string) (State, error) {
	data, err := s.client.Get(ctx, sessionKey(session)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Empty(), nil
		}
		return Empty(), fmt.Errorf("failed to get session state: %w", err)
	}
	return decodeState(data, s.logger), nil
}

func (s *redisSessionStore) Save(ctx context.Context, session string, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, session string) error {
	if err := s.client.Del(ctx, sessionKey(session)).Err(); err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Sessions(ctx context.Context) ([]string, error) {
	var sessions []string
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		sessions = append(sessions, iter.Val()[len(keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan session keys: %w", err)
	}
	return sessions, nil
}
