package identity

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doorkeep/doorkeep/internal/directory"
)

// DefaultTTL is the identity cache entry lifetime. It is deliberately
// long: expiry is a safety net, and explicit invalidation after every
// mutation is what keeps the cache honest.
const DefaultTTL = 70 * 24 * time.Hour

// Cache stores resolved directory entries keyed by principal GUID.
// Implementations must be safe for concurrent use and must treat
// Invalidate as idempotent.
type Cache interface {
	// Get returns the cached entry or nil on a miss.
	Get(guid uuid.UUID) (*directory.Entry, error)
	// Set stores an entry for ttl.
	Set(guid uuid.UUID, entry *directory.Entry, ttl time.Duration) error
	// Invalidate removes the entry; removing an absent entry is a no-op.
	Invalidate(guid uuid.UUID) error
}

type memoryEntry struct {
	entry     *directory.Entry
	expiresAt time.Time
}

// MemoryCache is a process-local Cache for tests and single-node
// deployments. Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[uuid.UUID]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(guid uuid.UUID) (*directory.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.entries[guid]
	if !ok {
		return nil, nil
	}

	if c.now().After(cached.expiresAt) {
		delete(c.entries, guid)
		return nil, nil
	}

	return cached.entry, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(guid uuid.UUID, entry *directory.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[guid] = memoryEntry{entry: entry, expiresAt: c.now().Add(ttl)}

	return nil
}

// Invalidate implements Cache.
func (c *MemoryCache) Invalidate(guid uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, guid)

	return nil
}
