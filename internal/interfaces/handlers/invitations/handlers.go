package invitations

import (
	invsvc "ride-backend/internal/application/invitations"
	"ride-backend/internal/middleware"
	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *invsvc.Service
}

// Request GET /api/v1/circles/:slug/members/:username/invitations tops up the
// member's outstanding codes and reports who joined through the used ones.
func (h *Handlers) Request(c *fiber.Ctx) error {
	actor, _ := middleware.ActorID(c)
	out, err := h.Service.RequestInvitations(c.UserContext(), c.Params("slug"), actor, c.Params("username"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitations fetched successfully", out, nil)
}
