package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/pkg/jwt"
)

// localActor clave de c.Locals con el access.Actor del token.
const localActor = "actor"

// TokenVerifier lo implementa *jwt.Signer.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// AuthMiddleware exige "Authorization: Bearer <token>" y deja el actor en el contexto.
func AuthMiddleware(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, found := strings.Cut(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)), " ")
		switch {
		case scheme == "":
			return authError(c, "MISSING_TOKEN", "Authorization header requerido")
		case !found || !strings.EqualFold(scheme, "Bearer"):
			return authError(c, "INVALID_TOKEN", "formato: Bearer <token>")
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return authError(c, "MISSING_TOKEN", "token vacío")
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			return authError(c, "INVALID_TOKEN", "token inválido o expirado")
		}
		c.Locals(localActor, access.Actor{UserID: claims.UserID, Role: claims.Role})
		return c.Next()
	}
}

func authError(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// ActorFrom actor autenticado; vacío si la ruta no pasó por AuthMiddleware.
func ActorFrom(c *fiber.Ctx) access.Actor {
	actor, _ := c.Locals(localActor).(access.Actor)
	return actor
}
