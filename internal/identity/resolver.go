package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/doorkeep/doorkeep/internal/directory"
)

// ErrPrincipalNotFound is returned when no directory entry matches a
// GUID.
var ErrPrincipalNotFound = errors.New("principal not found")

// Resolver maps between stable GUIDs and directory entries, consulting
// the cache before the network.
type Resolver struct {
	dir    directory.Directory
	cache  Cache
	baseDN string
	ttl    time.Duration
}

// NewResolver creates a resolver over a directory and a cache. A zero
// ttl selects DefaultTTL.
func NewResolver(dir directory.Directory, cache Cache, baseDN string, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Resolver{dir: dir, cache: cache, baseDN: baseDN, ttl: ttl}
}

// BaseDN returns the subtree principals and groups live under.
func (r *Resolver) BaseDN() string {
	return r.baseDN
}

// Resolve returns the principal for a GUID. A cache hit answers without
// any directory call; a miss searches one level under the base DN with
// the hex-escaped binary GUID filter and caches the snapshot.
//
// A cache backend failure degrades to a directory lookup instead of
// failing the resolution; it is logged, not hidden.
func (r *Resolver) Resolve(guid uuid.UUID) (*Principal, error) {
	cached, err := r.cache.Get(guid)
	if err != nil {
		log.Warn().Err(err).Str("guid", guid.String()).Msg("identity cache read failed")
	}

	if cached != nil {
		return &Principal{GUID: guid, Entry: cached}, nil
	}

	var entries []*directory.Entry

	err = r.dir.Do(func(s directory.Session) error {
		var errSearch error
		entries, errSearch = s.Search(r.baseDN, FilterByGUID(guid), directory.ScopeLevel, nil)

		return errSearch
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrPrincipalNotFound
	}

	entry := entries[0]

	if errSet := r.cache.Set(guid, entry, r.ttl); errSet != nil {
		log.Warn().Err(errSet).Str("guid", guid.String()).Msg("identity cache write failed")
	}

	return &Principal{GUID: guid, Entry: entry}, nil
}

// FindGUIDs returns the GUIDs of all principals whose attribute matches
// the value, restricted to one level under the base DN. The value is
// escaped per the filter syntax rules.
func (r *Resolver) FindGUIDs(field, value string) ([]uuid.UUID, error) {
	var entries []*directory.Entry

	err := r.dir.Do(func(s directory.Session) error {
		var errSearch error
		entries, errSearch = s.Search(
			r.baseDN,
			FilterByField(field, value),
			directory.ScopeLevel,
			[]string{AttrObjectGUID},
		)

		return errSearch
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search by %s: %w", field, err)
	}

	guids := make([]uuid.UUID, 0, len(entries))

	for _, entry := range entries {
		raw, ok := entry.RawValue(AttrObjectGUID)
		if !ok {
			continue
		}

		guid, errParse := GUIDFromLE(raw)
		if errParse != nil {
			return nil, errParse
		}

		guids = append(guids, guid)
	}

	return guids, nil
}

// FindByField resolves every principal whose attribute matches the
// value. Resolution goes through the cache like any other lookup.
func (r *Resolver) FindByField(field, value string) ([]*Principal, error) {
	guids, err := r.FindGUIDs(field, value)
	if err != nil {
		return nil, err
	}

	principals := make([]*Principal, 0, len(guids))

	for _, guid := range guids {
		principal, errResolve := r.Resolve(guid)
		if errResolve != nil {
			return nil, errResolve
		}

		principals = append(principals, principal)
	}

	return principals, nil
}

// DNFor constructs the DN a CN would have directly under the base DN.
// The result is a write target for entry creation, never a stable key:
// after any operation that could move the entry, re-resolve by GUID.
func (r *Resolver) DNFor(name string) string {
	return "CN=" + ldap.EscapeDN(name) + "," + r.baseDN
}

// Invalidate drops the cached entry for a GUID. Invalidating an absent
// entry is a no-op.
func (r *Resolver) Invalidate(guid uuid.UUID) error {
	return r.cache.Invalidate(guid)
}

// TTL returns the configured cache entry lifetime.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}
