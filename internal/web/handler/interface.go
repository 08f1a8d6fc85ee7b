package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/doorkeep/doorkeep/internal/access"
	"github.com/doorkeep/doorkeep/internal/account"
	"github.com/doorkeep/doorkeep/internal/config"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, accounts *account.Service, access *access.Service) error
}
