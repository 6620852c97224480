package cache

import (
	"context"
	"sync"
	"time"

	"github.com/roadwatch/backend/internal/domain"
)

// DefaultTTL is how long a computed segment set stays fresh
const DefaultTTL = 5 * time.Minute

// MemoryCache implements domain.SegmentCache in process memory with a TTL
type MemoryCache struct {
	mu        sync.RWMutex
	segments  []domain.BadSegment
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryCache creates an empty cache. A non-positive ttl uses DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached segments if they have not expired
func (c *MemoryCache) Get(ctx context.Context) ([]domain.BadSegment, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.segments == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	out := make([]domain.BadSegment, len(c.segments))
	copy(out, c.segments)
	return out, true, nil
}

// Set replaces the cached segments
func (c *MemoryCache) Set(ctx context.Context, segments []domain.BadSegment) error {
	stored := make([]domain.BadSegment, len(segments))
	copy(stored, segments)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.segments = stored
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

// Invalidate drops the cached segments
func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.segments = nil
	c.expiresAt = time.Time{}
	return nil
}
