package directory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		code     uint16
		sentinel error
	}{
		{"invalid credentials", ldap.LDAPResultInvalidCredentials, ErrInvalidCredentials},
		{"entry already exists", ldap.LDAPResultEntryAlreadyExists, ErrEntryExists},
		{"attribute or value exists", ldap.LDAPResultAttributeOrValueExists, ErrEntryExists},
		{"no such attribute", ldap.LDAPResultNoSuchAttribute, ErrNoSuchAttribute},
		{"constraint violation", ldap.LDAPResultConstraintViolation, ErrConstraintViolation},
		{"unwilling to perform", ldap.LDAPResultUnwillingToPerform, ErrConstraintViolation},
		{"no such object", ldap.LDAPResultNoSuchObject, ErrNotFound},
		{"network failure", ldap.ErrorNetwork, ErrUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ldapErr := ldap.NewError(tc.code, errors.New("server said no")) //nolint:goerr113

			classified := classify(ldapErr)
			require.Error(t, classified)
			assert.ErrorIs(t, classified, tc.sentinel)

			// the original ldap error stays reachable for logging
			assert.ErrorAs(t, classified, new(*ldap.Error))
		})
	}
}

func TestClassifyPassthrough(t *testing.T) {
	assert.NoError(t, classify(nil))

	plain := fmt.Errorf("not an ldap error") //nolint:goerr113
	assert.Equal(t, plain, classify(plain))

	// result codes outside the taxonomy propagate untouched
	other := ldap.NewError(ldap.LDAPResultBusy, errors.New("busy")) //nolint:goerr113
	assert.Equal(t, error(other), classify(other))

	// a classified sentinel never matches a different sentinel
	classified := classify(ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("gone"))) //nolint:goerr113
	assert.NotErrorIs(t, classified, ErrInvalidCredentials)
}
