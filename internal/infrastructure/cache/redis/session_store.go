// internal/infrastructure/cache/redis/session_store.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"game-topup-bot/internal/core/domain/conversation"

	"github.com/go-redis/redis/v8"
)

// SessionStore хранит диалоги в Redis, чтобы несколько экземпляров бота
// видели одно и то же состояние. TTL продлевается при каждой записи.
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionStore создает хранилище с ключами вида <prefix>session:<chatID>
func NewSessionStore(client *redis.Client, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		cache: NewCacheWithClient(client, prefix+"session:"),
		ttl:   ttl,
	}
}

func (s *SessionStore) Get(ctx context.Context, chatID int64) (*conversation.Session, error) {
	var session conversation.Session
	err := s.cache.Get(ctx, key(chatID), &session)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for chat %d: %w", chatID, err)
	}
	return &session, nil
}

func (s *SessionStore) Set(ctx context.Context, chatID int64, session *conversation.Session) error {
	stored := *session
	stored.UpdatedAt = time.Now()
	if err := s.cache.Set(ctx, key(chatID), &stored, s.ttl); err != nil {
		return fmt.Errorf("failed to save session for chat %d: %w", chatID, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.cache.Delete(ctx, key(chatID)); err != nil {
		return fmt.Errorf("failed to delete session for chat %d: %w", chatID, err)
	}
	return nil
}

func key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

var _ conversation.Store = (*SessionStore)(nil)
