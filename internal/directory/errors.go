package directory

import (
	"errors"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrInvalidCredentials is returned when a bind is rejected because of
	// bad credentials. Callers treat this as "wrong password", not as a
	// directory failure.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEntryExists is returned when an add or modify-add hits an entry
	// or value that is already present.
	ErrEntryExists = errors.New("entry already exists")

	// ErrNoSuchAttribute is returned when a modify-delete names an
	// attribute value that is not present.
	ErrNoSuchAttribute = errors.New("no such attribute")

	// ErrConstraintViolation is returned when the directory rejects a
	// modification for policy reasons, typically password complexity.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFound is returned when the named entry does not exist.
	ErrNotFound = errors.New("entry not found")

	// ErrUnavailable is returned on network and timeout failures. These
	// are transient from the directory's point of view but are never
	// retried here; the caller decides.
	ErrUnavailable = errors.New("directory unavailable")
)

// classify maps go-ldap errors onto the package sentinels so call sites
// can use errors.Is instead of inspecting LDAP result codes.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials):
		return wrap(ErrInvalidCredentials, err)
	case ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists),
		ldap.IsErrorWithCode(err, ldap.LDAPResultAttributeOrValueExists):
		return wrap(ErrEntryExists, err)
	case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchAttribute):
		return wrap(ErrNoSuchAttribute, err)
	case ldap.IsErrorWithCode(err, ldap.LDAPResultConstraintViolation),
		ldap.IsErrorWithCode(err, ldap.LDAPResultUnwillingToPerform):
		return wrap(ErrConstraintViolation, err)
	case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject):
		return wrap(ErrNotFound, err)
	case ldap.IsErrorWithCode(err, ldap.ErrorNetwork):
		return wrap(ErrUnavailable, err)
	default:
		return err
	}
}

type classifiedError struct {
	sentinel error
	cause    error
}

func (e *classifiedError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *classifiedError) Is(target error) bool {
	return errors.Is(e.sentinel, target)
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}

func wrap(sentinel, cause error) error {
	return &classifiedError{sentinel: sentinel, cause: cause}
}
