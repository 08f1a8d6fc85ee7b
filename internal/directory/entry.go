package directory

import (
	"github.com/go-ldap/ldap/v3"
)

// Entry is an immutable snapshot of a directory entry. The DN is the
// entry's position at resolution time and must not be used as a long-term
// key; it can change on rename or move.
type Entry struct {
	// DN is the distinguished name at the time of the search.
	DN string `json:"dn"`
	// Attributes holds the string form of every returned attribute.
	Attributes map[string][]string `json:"attributes"`
	// Raw holds the wire bytes of every returned attribute, needed for
	// binary attributes such as objectGUID.
	Raw map[string][][]byte `json:"raw"`
}

// FromLDAPEntry converts a go-ldap entry into a snapshot.
func FromLDAPEntry(e *ldap.Entry) *Entry {
	entry := &Entry{
		DN:         e.DN,
		Attributes: make(map[string][]string, len(e.Attributes)),
		Raw:        make(map[string][][]byte, len(e.Attributes)),
	}

	for _, attr := range e.Attributes {
		entry.Attributes[attr.Name] = attr.Values
		entry.Raw[attr.Name] = attr.ByteValues
	}

	return entry
}

// Value returns the first value of the attribute and whether the
// attribute is present. An absent attribute is a normal condition, not an
// error.
func (e *Entry) Value(name string) (string, bool) {
	values, ok := e.Attributes[name]
	if !ok || len(values) == 0 {
		return "", false
	}

	return values[0], true
}

// Values returns all values of the attribute; nil when absent.
func (e *Entry) Values(name string) []string {
	return e.Attributes[name]
}

// RawValue returns the first raw byte value of the attribute and whether
// the attribute is present.
func (e *Entry) RawValue(name string) ([]byte, bool) {
	values, ok := e.Raw[name]
	if !ok || len(values) == 0 {
		return nil, false
	}

	return values[0], true
}

// HasValue reports whether the attribute contains the given value.
func (e *Entry) HasValue(name, value string) bool {
	for _, v := range e.Attributes[name] {
		if v == value {
			return true
		}
	}

	return false
}
