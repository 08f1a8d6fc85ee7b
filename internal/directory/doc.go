// Package directory provides the connection and session layer for the
// remote directory service (Active Directory or any LDAP server with the
// same schema).
//
// A Client owns the connection settings. Every logical operation runs in
// its own scoped session: Do dials, binds the service identity, hands a
// Session to the callback and closes the connection on every exit path.
// Sessions are never shared between concurrent operations.
//
// CheckBind is the credential check: it binds as the user instead of the
// service identity and reports invalid credentials as ErrInvalidCredentials.
//
// All LDAP result codes surface as the package's sentinel errors so that
// callers can decide per call site what is idempotent (entry already
// exists, no such attribute), what is user-recoverable (constraint
// violation on password policy) and what must propagate.
package directory
