package identity

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// LEBytes renders a UUID in the directory's objectGUID wire layout: the
// first three fields are little-endian, the rest big-endian.
func LEBytes(g uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, g[:])
	b[0], b[1], b[2], b[3] = g[3], g[2], g[1], g[0]
	b[4], b[5] = g[5], g[4]
	b[6], b[7] = g[7], g[6]

	return b
}

// GUIDFromLE parses an objectGUID wire value into a UUID.
func GUIDFromLE(b []byte) (uuid.UUID, error) {
	if len(b) != 16 {
		return uuid.Nil, fmt.Errorf("objectGUID must be 16 bytes, got %d", len(b))
	}

	var g uuid.UUID
	copy(g[:], b)
	g[0], g[1], g[2], g[3] = b[3], b[2], b[1], b[0]
	g[4], g[5] = b[5], b[4]
	g[6], g[7] = b[7], b[6]

	return g, nil
}

// EscapeBytes hex-escapes every byte for use in a search filter. Certain
// byte sequences contain printable characters that the filter parser
// would treat as metacharacters, so each byte is escaped regardless of
// printability.
func EscapeBytes(b []byte) string {
	out := make([]byte, 0, len(b)*3)
	for _, c := range b {
		out = append(out, fmt.Sprintf(`\%02x`, c)...)
	}

	return string(out)
}

// FilterByGUID builds the search filter matching a principal's binary
// objectGUID.
func FilterByGUID(g uuid.UUID) string {
	return "(objectGUID=" + EscapeBytes(LEBytes(g)) + ")"
}

// FilterByField builds an equality filter with the value escaped per the
// filter syntax rules.
func FilterByField(field, value string) string {
	return "(" + field + "=" + ldap.EscapeFilter(value) + ")"
}
