package identity

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/doorkeep/doorkeep/internal/directory"
)

// Directory attribute names the core reads and writes.
const (
	AttrCN                = "cn"
	AttrDistinguishedName = "distinguishedName"
	AttrGivenName         = "givenName"
	AttrMail              = "mail"
	AttrMemberOf          = "memberOf"
	AttrObjectGUID        = "objectGUID"
	AttrSAMAccountName    = "sAMAccountName"
	AttrSurname           = "sn"
	AttrUnicodePwd        = "unicodePwd"
	AttrUPN               = "userPrincipalName"
	AttrAccountControl    = "userAccountControl"
	AttrMember            = "member"
	AttrMsSFU30Name       = "msSFU30Name"
)

// userAccountControl values.
const (
	// ControlDisabledFlag is the account-disabled bit.
	ControlDisabledFlag = 2
	// ControlNormalAccount is a plain enabled account.
	ControlNormalAccount = "512"
	// ControlDisabledAccount is a plain account with the disabled bit set.
	ControlDisabledAccount = "514"
)

// Principal is an immutable view of a member: the stable GUID plus the
// directory entry snapshot it resolved to. Derived attributes are
// computed from the snapshot, never stored separately.
type Principal struct {
	GUID  uuid.UUID
	Entry *directory.Entry
}

// DN returns the entry's distinguished name at resolution time. Not a
// stable identifier.
func (p *Principal) DN() string {
	if dn, ok := p.Entry.Value(AttrDistinguishedName); ok {
		return dn
	}

	return p.Entry.DN
}

// UPN returns the userPrincipalName used for bind-as-user checks.
func (p *Principal) UPN() string {
	upn, _ := p.Entry.Value(AttrUPN)

	return upn
}

// IsActive reports whether the account-disabled control bit is clear.
// A missing or unparseable control value counts as inactive.
func (p *Principal) IsActive() bool {
	raw, ok := p.Entry.Value(AttrAccountControl)
	if !ok {
		return false
	}

	control, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}

	return control&ControlDisabledFlag == 0
}

// FullName returns "givenName sn", or the short name when either part is
// absent.
func (p *Principal) FullName() string {
	firstName, okFirst := p.Entry.Value(AttrGivenName)
	lastName, okLast := p.Entry.Value(AttrSurname)

	if !okFirst || !okLast {
		return p.ShortName()
	}

	return firstName + " " + lastName
}

// ShortName returns the entry's CN, falling back to the GUID when the
// attribute is absent.
func (p *Principal) ShortName() string {
	if cn, ok := p.Entry.Value(AttrCN); ok {
		return cn
	}

	return p.GUID.String()
}

// Email returns the mail attribute or the empty string.
func (p *Principal) Email() string {
	mail, _ := p.Entry.Value(AttrMail)

	return mail
}

// MemberOf returns the DNs of the groups the principal belongs to.
func (p *Principal) MemberOf() []string {
	return p.Entry.Values(AttrMemberOf)
}

// HasGroup reports whether the principal is a member of the group with
// the given DN. An absent memberOf attribute means no memberships.
func (p *Principal) HasGroup(dn string) bool {
	return p.Entry.HasValue(AttrMemberOf, dn)
}

func (p *Principal) String() string {
	return p.ShortName()
}
