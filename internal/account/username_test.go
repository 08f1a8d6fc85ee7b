package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doorkeep/doorkeep/internal/account"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{
		"abc",
		"jdoe",
		"jdoe42",
		"a23456789012345678901234567890", // 30 characters
	}

	for _, username := range valid {
		assert.NoError(t, account.ValidateUsername(username), username)
	}

	invalid := []string{
		"",
		"ab",                              // too short
		"a234567890123456789012345678901", // 31 characters
		"9lives",                          // starts with a digit
		"JDoe",                            // upper case
		"j.doe",                           // punctuation
		"j doe",                           // whitespace
		"jdoe*",                           // filter metacharacter
	}

	for _, username := range invalid {
		assert.ErrorIs(t, account.ValidateUsername(username), account.ErrInvalidUsername, username)
	}
}
