package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"serenity/models"

	"github.com/go-redis/redis/v8"
)

// SessionStore persists conversation sessions between messages. A missing
// session is (nil, nil), not an error.
type SessionStore interface {
	Get(ctx context.Context, phone string) (*models.ConversationSession, error)
	Save(ctx context.Context, session *models.ConversationSession) error
	Delete(ctx context.Context, phone string) error
	// Stale lists contact keys whose sessions have been idle longer than
	// maxIdle; the sweeper expires them.
	Stale(ctx context.Context, maxIdle time.Duration) ([]string, error)
}

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps sessions in Redis with a rolling TTL, so abandoned
// conversations age out even if the sweeper never runs.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, phone string) (*models.ConversationSession, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+phone).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session for %s: %w", phone, err)
	}
	var session models.ConversationSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session for %s: %w", phone, err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *models.ConversationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session for %s: %w", session.ClientPhone, err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ClientPhone, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session for %s: %w", session.ClientPhone, err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, sessionKeyPrefix+phone).Err()
}

func (s *RedisSessionStore) Stale(ctx context.Context, maxIdle time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-maxIdle)

	var stale []string
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		phone := key[len(sessionKeyPrefix):]
		session, err := s.Get(ctx, phone)
		if err != nil || session == nil {
			continue
		}
		if session.LastActivity.Before(cutoff) {
			stale = append(stale, phone)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("session scan failed: %w", err)
	}
	return stale, nil
}

// MemorySessionStore is the in-memory store used in tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.ConversationSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.ConversationSession)}
}

func (s *MemorySessionStore) Get(ctx context.Context, phone string) (*models.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[phone]
	if !ok {
		return nil, nil
	}
	copied := session
	return &copied, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, session *models.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ClientPhone] = *session
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, phone)
	return nil
}

func (s *MemorySessionStore) Stale(ctx context.Context, maxIdle time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-maxIdle)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []string
	for phone, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			stale = append(stale, phone)
		}
	}
	return stale, nil
}
