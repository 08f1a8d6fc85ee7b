// Package auth provides authentication middleware for the web service.
//
// The middleware verifies HTTP basic auth credentials with a bind as the
// member against the directory. The authenticated principal is added to
// fiber.Locals under PrincipalKey for use in handlers.
//
// Usage:
//
//	app.Post("/unlock/:resource", authmiddleware.New(accounts), unlockHandler)
package auth
