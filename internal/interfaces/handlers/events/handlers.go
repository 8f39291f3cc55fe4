package events

import (
	eventsvc "ride-backend/internal/application/events"
	"ride-backend/internal/middleware"
	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

// List GET /api/v1/circles/:slug/events
func (h *Handlers) List(c *fiber.Ctx) error {
	actor, _ := middleware.ActorID(c)
	events, err := h.Service.ListForCircle(c.UserContext(), c.Params("slug"), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Circle events fetched successfully", events, fiber.Map{"count": len(events)})
}
