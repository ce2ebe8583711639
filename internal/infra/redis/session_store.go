package redis

import (
	"context"
	"sync"
	"time"

	"estimation-quiz-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Sessions live in a local map; game state is never written to Redis.
//   - Redis holds a liveness marker per room so other instances and operators
//     can see which rooms are open on which host.
//   - Markers are only written by Refresh, never on the command path.
type SessionStore struct {
	*memory.SessionStore

	client   *redis.Client
	ttl      time.Duration
	instance string

	mu     sync.Mutex
	marked map[string]struct{}
}

func NewSessionStore(client *redis.Client, ttl time.Duration, instance string) *SessionStore {
	if instance == "" {
		instance = "1"
	}
	return &SessionStore{
		SessionStore: memory.NewSessionStore(),
		client:       client,
		ttl:          ttl,
		instance:     instance,
		marked:       make(map[string]struct{}),
	}
}

// Run refreshes markers every interval until ctx is done. Failed refreshes
// are retried on the next tick.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, interval)
			_ = s.Refresh(tickCtx)
			cancel()
		}
	}
}

// Refresh writes a marker with a fresh TTL for every live room and removes
// markers of rooms that have closed since the last call.
func (s *SessionStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[string]struct{})
	pipe := s.client.Pipeline()
	for _, id := range s.Rooms() {
		live[id] = struct{}{}
		pipe.Set(ctx, s.key(id), s.instance, s.ttl)
	}
	var closed []string
	for id := range s.marked {
		if _, ok := live[id]; !ok {
			closed = append(closed, id)
			pipe.Del(ctx, s.key(id))
		}
	}
	if len(live) == 0 && len(closed) == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	for _, id := range closed {
		delete(s.marked, id)
	}
	for id := range live {
		s.marked[id] = struct{}{}
	}
	return nil
}

// RefreshInterval is how often Run should be called for a store with ttl.
func RefreshInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	return ttl / 3
}

func (s *SessionStore) key(roomID string) string {
	return "quiz:room:" + roomID
}
