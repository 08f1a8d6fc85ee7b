// Package rfid provides the reader-facing endpoints: tag checks against
// a resource and authenticated unlocks. Responses are plain text because
// the door controllers parse them with fixed-size buffers.
package rfid

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/doorkeep/doorkeep/internal/access"
	"github.com/doorkeep/doorkeep/internal/account"
	"github.com/doorkeep/doorkeep/internal/config"
	"github.com/doorkeep/doorkeep/internal/web/handler"
	authmiddleware "github.com/doorkeep/doorkeep/internal/web/middleware/auth"
)

const (
	// CheckPath is the path of the tag check endpoint.
	CheckPath = handler.RootPath + "check/:resource/:tag"

	// UnlockPath is the path of the unlock endpoint.
	UnlockPath = handler.RootPath + "unlock/:resource"

	// BodyAllowed is the response body the readers expect on admission.
	BodyAllowed = "Yes"

	// BodyDenied is the response body the readers expect on rejection.
	BodyDenied = "No"
)

// Service is the rfid handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	access *access.Service
}

// Handler is the rfid handler.
var Handler = Service{}

// Init initializes the rfid handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, accounts *account.Service, accessService *access.Service) {
	if app == nil || cfg == nil || accounts == nil || accessService == nil {
		log.Fatal().Msg(handler.ErrNilACSFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.access = accessService

	app.Get(CheckPath, s.Check)
	app.Post(UnlockPath, authmiddleware.New(accounts), s.Unlock)
}

// Check handles a reader asking whether a tag opens a resource.
func (s *Service) Check(c *fiber.Ctx) error {
	tag := c.Params("tag")
	resource := c.Params("resource")

	allowed, err := s.access.Check(tag, resource)

	switch {
	case errors.Is(err, access.ErrResourceNotFound), errors.Is(err, access.ErrTagNotFound):
		return c.Status(fiber.StatusNotFound).SendString(BodyDenied)
	case err != nil:
		log.Error().Err(err).Str("resource", resource).Msg("access check failed")

		return c.Status(fiber.StatusInternalServerError).SendString(BodyDenied)
	case allowed:
		return c.SendString(BodyAllowed)
	default:
		return c.Status(fiber.StatusForbidden).SendString(BodyDenied)
	}
}

// Unlock handles an authenticated member opening a resource from the
// web. The auth middleware has already verified the credentials.
func (s *Service) Unlock(c *fiber.Ctx) error {
	resource := c.Params("resource")

	err := s.access.Unlock(resource)

	switch {
	case errors.Is(err, access.ErrResourceNotFound):
		return c.Status(fiber.StatusNotFound).SendString("Not Found")
	case errors.Is(err, access.ErrNoActuator):
		return c.Status(fiber.StatusConflict).SendString("No Actuator")
	case err != nil:
		log.Error().Err(err).Str("resource", resource).Msg("unlock failed")

		return c.Status(fiber.StatusBadGateway).SendString("Unlock Failed")
	default:
		return c.SendString("OK")
	}
}
