package directory

import (
	"github.com/go-ldap/ldap/v3"
)

// Scope is the search breadth.
type Scope int

const (
	// ScopeBase looks at exactly the named entry.
	ScopeBase Scope = iota
	// ScopeLevel looks one level below the base, without descending into
	// nested organizational units.
	ScopeLevel
	// ScopeSubtree looks at the whole subtree.
	ScopeSubtree
)

func (s Scope) ldapScope() int {
	switch s {
	case ScopeBase:
		return ldap.ScopeBaseObject
	case ScopeLevel:
		return ldap.ScopeSingleLevel
	default:
		return ldap.ScopeWholeSubtree
	}
}

// Session is a bound directory connection scoped to a single logical
// operation. Sessions are not safe for concurrent use; every operation
// acquires its own through Client.Do.
type Session interface {
	// Search runs a filter under base and returns entry snapshots.
	// An empty attrs slice requests all attributes.
	Search(base, filter string, scope Scope, attrs []string) ([]*Entry, error)
	// Add creates an entry with the given object classes and attributes.
	Add(dn string, objectClasses []string, attrs map[string][]string) error
	// ModifyAdd appends values to an attribute.
	ModifyAdd(dn, attr string, values []string) error
	// ModifyDelete removes values from an attribute.
	ModifyDelete(dn, attr string, values []string) error
	// ModifyReplace replaces all values of an attribute.
	ModifyReplace(dn, attr string, values []string) error
	// Delete removes the entry.
	Delete(dn string) error
}

// ldapSession implements Session over a live go-ldap connection.
type ldapSession struct {
	conn      *ldap.Conn
	timeLimit int
}

func (s *ldapSession) Search(base, filter string, scope Scope, attrs []string) ([]*Entry, error) {
	request := ldap.NewSearchRequest(
		base,
		scope.ldapScope(),
		ldap.NeverDerefAliases,
		0, // no size limit
		s.timeLimit,
		false,
		filter,
		attrs,
		nil,
	)

	result, err := s.conn.Search(request)
	if err != nil {
		return nil, classify(err)
	}

	entries := make([]*Entry, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = FromLDAPEntry(e)
	}

	return entries, nil
}

func (s *ldapSession) Add(dn string, objectClasses []string, attrs map[string][]string) error {
	request := ldap.NewAddRequest(dn, nil)
	request.Attribute("objectClass", objectClasses)

	for name, values := range attrs {
		request.Attribute(name, values)
	}

	return classify(s.conn.Add(request))
}

func (s *ldapSession) ModifyAdd(dn, attr string, values []string) error {
	request := ldap.NewModifyRequest(dn, nil)
	request.Add(attr, values)

	return classify(s.conn.Modify(request))
}

func (s *ldapSession) ModifyDelete(dn, attr string, values []string) error {
	request := ldap.NewModifyRequest(dn, nil)
	request.Delete(attr, values)

	return classify(s.conn.Modify(request))
}

func (s *ldapSession) ModifyReplace(dn, attr string, values []string) error {
	request := ldap.NewModifyRequest(dn, nil)
	request.Replace(attr, values)

	return classify(s.conn.Modify(request))
}

func (s *ldapSession) Delete(dn string) error {
	return classify(s.conn.Del(ldap.NewDelRequest(dn, nil)))
}
