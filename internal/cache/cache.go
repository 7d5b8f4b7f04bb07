package cache

import (
	"context"
	"sync"
	"time"

	"github.com/refhub/referralhub/internal/domain/user"
)

// ProjectionCache caches the caller-safe user projection for the hot
// lookup endpoints. Implementations are best-effort: a miss or a failed
// set never surfaces to the caller.
type ProjectionCache interface {
	Get(ctx context.Context, key string) (user.Projection, bool)
	Set(ctx context.Context, key string, p user.Projection)
	Delete(ctx context.Context, key string)
}

// cache keys
func KeyByID(id int64) string {
	return "user:id:" + itoa(id)
}

func KeyByCode(code string) string {
	return "user:code:" + code
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [32]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
}

type entry struct {
	val user.Projection
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
	}
}

func (c *Memory) Get(_ context.Context, key string) (user.Projection, bool) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return user.Projection{}, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return user.Projection{}, false
	}

	return e.val, true
}

func (c *Memory) Set(_ context.Context, key string, val user.Projection) {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Memory) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Memory) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}
