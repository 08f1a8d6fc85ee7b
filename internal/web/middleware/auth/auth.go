package auth

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/doorkeep/doorkeep/internal/account"
)

// PrincipalKey is the fiber.Locals key the authenticated principal is
// stored under.
const PrincipalKey = "principal"

// New creates a Fiber middleware that checks basic auth credentials
// against the directory.
func New(accounts *account.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username, password, ok := parseBasicAuth(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return challenge(c)
		}

		principal, err := accounts.Authenticate(username, password)
		if err != nil {
			return challenge(c)
		}

		c.Locals(PrincipalKey, principal)

		return c.Next()
	}
}

func challenge(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="doorkeep"`)

	return c.SendStatus(fiber.StatusUnauthorized)
}

// parseBasicAuth decodes an Authorization header of the basic scheme.
func parseBasicAuth(header string) (string, string, bool) {
	const prefix = "Basic "

	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}

	return username, password, true
}
