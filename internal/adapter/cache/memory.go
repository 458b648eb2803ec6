package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github-portfolio/internal/port"
)

// DefaultTTL 导入结果的默认缓存时间
const DefaultTTL = 10 * time.Minute

const defaultSize = 1024

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache 进程内的 LRU 缓存，条目只在 TTL 到期后失效
// 时钟可注入，由调用方显式创建和丢弃
type MemoryCache struct {
	entries    *lru.Cache[string, entry]
	defaultTTL time.Duration
	nowFunc    func() time.Time
}

var _ port.ResultCache = (*MemoryCache)(nil)

// NewMemoryCache size <= 0 时使用 1024，ttl <= 0 时使用 DefaultTTL
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	return NewMemoryCacheWithClock(size, ttl, time.Now)
}

// NewMemoryCacheWithClock 注入时钟，便于测试过期
func NewMemoryCacheWithClock(size int, ttl time.Duration, now func() time.Time) (*MemoryCache, error) {
	if size <= 0 {
		size = defaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}

	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryCache{entries: entries, defaultTTL: ttl, nowFunc: now}, nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !c.nowFunc().Before(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	c.entries.Add(key, entry{value: cp, expiresAt: c.nowFunc().Add(ttl)})
	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.entries.Purge()
	return nil
}

// Len 当前条目数 (含尚未被访问到的过期条目)
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}
