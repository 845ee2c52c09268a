package factcheck

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Slots hands out at most one in-flight analysis per user.
type Slots interface {
	// Acquire returns ok=false when the user already holds a slot.
	Acquire(ctx context.Context, userID, token string) (ok bool, err error)
	Release(ctx context.Context, userID, token string) error
}

// MemorySlots keeps in-flight markers in process memory.
type MemorySlots struct {
	mu    sync.Mutex
	owner map[string]string
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{owner: make(map[string]string)}
}

func (m *MemorySlots) Acquire(_ context.Context, userID, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.owner[userID]; busy {
		return false, nil
	}
	m.owner[userID] = token
	return true, nil
}

func (m *MemorySlots) Release(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner[userID] == token {
		delete(m.owner, userID)
	}
	return nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSlots shares in-flight markers across replicas. The TTL bounds a slot
// left behind by a crashed process.
type RedisSlots struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSlots(rdb *redis.Client, ttl time.Duration) *RedisSlots {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisSlots{rdb: rdb, prefix: "factcheck:inflight:", ttl: ttl}
}

func (r *RedisSlots) Acquire(ctx context.Context, userID, token string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.prefix+userID, token, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire slot: %w", err)
	}
	return ok, nil
}

func (r *RedisSlots) Release(ctx context.Context, userID, token string) error {
	if err := releaseScript.Run(ctx, r.rdb, []string{r.prefix + userID}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}
