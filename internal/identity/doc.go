// Package identity resolves principals from the directory and caches the
// result per GUID.
//
// The GUID is the only stable identifier a principal has: the directory
// assigns it at entry creation and it never changes, while the DN can
// change on rename or move and must never be used as a lookup key across
// requests. The Resolver therefore searches by the GUID's binary wire
// form, with every byte hex-escaped individually so that filter
// metacharacters inside the GUID cannot corrupt the search.
//
// Resolved entries are cached with a long TTL (70 days by default). The
// TTL is a safety net only; correctness comes from the explicit
// Invalidate calls the account and group services make after every
// successful mutation. There is no transaction spanning a directory
// mutation and the cache invalidation that follows it: a crash between
// the two leaves a stale entry until the next invalidation or TTL expiry.
package identity
