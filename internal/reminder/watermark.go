package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/timex"
	"github.com/redis/go-redis/v9"
)

// Watermark remembers which reminder occurrences were already delivered.
// Claim returns true only for the first caller of a key until ttl elapses.
type Watermark interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// watermarkKey identifies one reminder occurrence. Editing the start time or
// the lead time produces a new occurrence.
func watermarkKey(s models.Schedule) string {
	return fmt.Sprintf("%d:%s:%d", s.ID, timex.FormatStorage(s.StartTime), s.ReminderMinutes)
}

// MemoryWatermark is a process-local Watermark.
type MemoryWatermark struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryWatermark() *MemoryWatermark {
	return &MemoryWatermark{claims: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryWatermark) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.claims {
		if !now.Before(exp) {
			delete(m.claims, k)
		}
	}

	if _, taken := m.claims[key]; taken {
		return false, nil
	}
	m.claims[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryWatermark) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, key)
	return nil
}

// RedisWatermark shares claims through redis so several processes serving
// the same user deliver each reminder once.
type RedisWatermark struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisClient initializes a redis client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisWatermark(rdb *redis.Client, prefix string) *RedisWatermark {
	if prefix == "" {
		prefix = "gophcal:reminder:"
	}
	return &RedisWatermark{rdb: rdb, prefix: prefix}
}

func (r *RedisWatermark) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim: %w", err)
	}
	return ok, nil
}

func (r *RedisWatermark) Release(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	return nil
}
