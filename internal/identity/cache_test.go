package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorkeep/doorkeep/internal/directory"
)

func testEntry(dn string) *directory.Entry {
	return &directory.Entry{
		DN:         dn,
		Attributes: map[string][]string{AttrCN: {"jdoe"}},
		Raw:        map[string][][]byte{},
	}
}

func TestMemoryCacheGetSetInvalidate(t *testing.T) {
	cache := NewMemoryCache()
	guid := uuid.New()

	got, err := cache.Get(guid)
	require.NoError(t, err)
	assert.Nil(t, got, "empty cache must miss")

	require.NoError(t, cache.Set(guid, testEntry("CN=jdoe"), time.Minute))

	got, err = cache.Get(guid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CN=jdoe", got.DN)

	require.NoError(t, cache.Invalidate(guid))

	got, err = cache.Get(guid)
	require.NoError(t, err)
	assert.Nil(t, got)

	// invalidation is idempotent
	require.NoError(t, cache.Invalidate(guid))
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	cache := NewMemoryCache()
	guid := uuid.New()

	now := time.Now()
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(guid, testEntry("CN=jdoe"), time.Hour))

	got, err := cache.Get(guid)
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(2 * time.Hour)

	got, err = cache.Get(guid)
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry must miss")
}

func TestMemoryCacheDefaultTTL(t *testing.T) {
	cache := NewMemoryCache()
	guid := uuid.New()

	now := time.Now()
	cache.now = func() time.Time { return now }

	// zero ttl falls back to the 70 day horizon
	require.NoError(t, cache.Set(guid, testEntry("CN=jdoe"), 0))

	now = now.Add(69 * 24 * time.Hour)

	got, err := cache.Get(guid)
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(2 * 24 * time.Hour)

	got, err = cache.Get(guid)
	require.NoError(t, err)
	assert.Nil(t, got)
}
