package account

import "errors"

var (
	// ErrUsernameTaken is returned when the advisory uniqueness search
	// finds the username already in the directory. The directory remains
	// authoritative and can still reject a create on conflict.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidUsername is returned when a username fails the syntax
	// rule: lower case, starts with a letter, letters and digits only,
	// 3 to 30 characters.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidPassword is returned when authentication fails because
	// the supplied password is wrong.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrAccountDisabled is returned when authenticating a principal
	// whose account-disabled control bit is set.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrMultiplePrincipalsFound is returned when a username lookup that
	// expected one principal found several. This indicates duplicate
	// directory entries.
	ErrMultiplePrincipalsFound = errors.New("multiple principals found")

	// ErrTokenInvalid is returned when a password reset token does not
	// exist or was already consumed.
	ErrTokenInvalid = errors.New("reset token is invalid")

	// ErrTokenExpired is returned when a password reset token is past
	// its validity window.
	ErrTokenExpired = errors.New("reset token has expired")
)
