package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/doorkeep/doorkeep/internal/directory"
)

func principalWith(attrs map[string][]string) *Principal {
	return &Principal{
		GUID: uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Entry: &directory.Entry{
			DN:         "CN=jdoe,OU=Members,DC=example,DC=org",
			Attributes: attrs,
			Raw:        map[string][][]byte{},
		},
	}
}

func TestPrincipalIsActive(t *testing.T) {
	testCases := []struct {
		name    string
		control []string
		active  bool
	}{
		{"enabled normal account", []string{"512"}, true},
		{"disabled account", []string{"514"}, false},
		{"enabled with unrelated bits", []string{"66048"}, true},
		{"disabled with unrelated bits", []string{"66050"}, false},
		{"absent control attribute", nil, false},
		{"unparseable control value", []string{"what"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			attrs := map[string][]string{}
			if tc.control != nil {
				attrs[AttrAccountControl] = tc.control
			}

			assert.Equal(t, tc.active, principalWith(attrs).IsActive())
		})
	}
}

func TestPrincipalNames(t *testing.T) {
	p := principalWith(map[string][]string{
		AttrCN:        {"jdoe"},
		AttrGivenName: {"Jane"},
		AttrSurname:   {"Doe"},
	})

	assert.Equal(t, "Jane Doe", p.FullName())
	assert.Equal(t, "jdoe", p.ShortName())
	assert.Equal(t, "jdoe", p.String())
}

func TestPrincipalNameFallbacks(t *testing.T) {
	// missing surname falls back to the short name
	p := principalWith(map[string][]string{
		AttrCN:        {"jdoe"},
		AttrGivenName: {"Jane"},
	})
	assert.Equal(t, "jdoe", p.FullName())

	// no attributes at all falls back to the GUID
	bare := principalWith(map[string][]string{})
	assert.Equal(t, bare.GUID.String(), bare.ShortName())
	assert.Equal(t, bare.GUID.String(), bare.FullName())
}

func TestPrincipalEmail(t *testing.T) {
	assert.Equal(t, "jdoe@example.org", principalWith(map[string][]string{
		AttrMail: {"jdoe@example.org"},
	}).Email())

	assert.Empty(t, principalWith(map[string][]string{}).Email())
}

func TestPrincipalGroups(t *testing.T) {
	admins := "CN=Domain Admins,OU=Members,DC=example,DC=org"

	p := principalWith(map[string][]string{
		AttrMemberOf: {admins},
	})

	assert.True(t, p.HasGroup(admins))
	assert.False(t, p.HasGroup("CN=woodshop,OU=Members,DC=example,DC=org"))
	assert.Len(t, p.MemberOf(), 1)

	// absent memberOf means no memberships, not an error
	bare := principalWith(map[string][]string{})
	assert.False(t, bare.HasGroup(admins))
	assert.Empty(t, bare.MemberOf())
}

func TestPrincipalDNPrefersAttribute(t *testing.T) {
	p := principalWith(map[string][]string{
		AttrDistinguishedName: {"CN=jdoe,OU=Moved,DC=example,DC=org"},
	})
	assert.Equal(t, "CN=jdoe,OU=Moved,DC=example,DC=org", p.DN())

	// falls back to the search result DN
	bare := principalWith(map[string][]string{})
	assert.Equal(t, "CN=jdoe,OU=Members,DC=example,DC=org", bare.DN())
}
