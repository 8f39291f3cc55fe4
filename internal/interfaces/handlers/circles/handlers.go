package circles

import (
	circlesvc "ride-backend/internal/application/circles"
	"ride-backend/internal/middleware"
	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *circlesvc.Service
}

// List GET /api/v1/circles?public=true
func (h *Handlers) List(c *fiber.Ctx) error {
	circles, err := h.Service.List(c.UserContext(), c.QueryBool("public", false))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Circles fetched successfully", circles, fiber.Map{"count": len(circles)})
}

// Create POST /api/v1/circles
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in circlesvc.CreateCircleInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.ActorID(c)
	circle, membership, err := h.Service.CreateCircle(c.UserContext(), in, actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Circle created successfully", fiber.Map{
		"circle":     circle,
		"membership": membership,
	}, nil)
}

// Get GET /api/v1/circles/:slug
func (h *Handlers) Get(c *fiber.Ctx) error {
	circle, err := h.Service.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Circle fetched successfully", circle, nil)
}

// Update PATCH /api/v1/circles/:slug
func (h *Handlers) Update(c *fiber.Ctx) error {
	var in circlesvc.UpdateCircleInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.ActorID(c)
	circle, err := h.Service.Update(c.UserContext(), c.Params("slug"), actor, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Circle updated successfully", circle, nil)
}
