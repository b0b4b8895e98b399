package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
)

// RequireCapability devuelve un middleware Fiber que corta la petición si el rol del token no
// tiene la capacidad. Va después de AuthMiddleware.
//
// Comportamiento:
//   - 401 Unauthorized → no hay user_id en el contexto.
//   - 403 Forbidden    → el rol no tiene la capacidad en la política.
func RequireCapability(policy access.Policy, capability access.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "user_id no encontrado en el token",
			})
		}
		if !policy.Allows(actor, capability) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "el rol '" + actor.Role + "' no tiene permiso " + string(capability),
			})
		}
		return c.Next()
	}
}
