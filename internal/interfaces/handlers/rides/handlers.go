package rides

import (
	ridesvc "ride-backend/internal/application/rides"
	"ride-backend/internal/domain"
	"ride-backend/internal/middleware"
	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *ridesvc.Service
}

func rideID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrRideNotFound
	}
	return id, nil
}

// List GET /api/v1/circles/:slug/rides?search=
func (h *Handlers) List(c *fiber.Ctx) error {
	actor, _ := middleware.ActorID(c)
	rides, err := h.Service.List(c.UserContext(), c.Params("slug"), actor, c.Query("search"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Rides fetched successfully", rides, fiber.Map{"count": len(rides)})
}

// Create POST /api/v1/circles/:slug/rides
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in ridesvc.CreateRideInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.ActorID(c)
	ride, err := h.Service.CreateRide(c.UserContext(), c.Params("slug"), actor, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Ride offered successfully", ride, nil)
}

// Update PATCH /api/v1/circles/:slug/rides/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := rideID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var in ridesvc.UpdateRideInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.ActorID(c)
	ride, err := h.Service.UpdateRide(c.UserContext(), c.Params("slug"), id, actor, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ride updated successfully", ride, nil)
}

// Join POST /api/v1/circles/:slug/rides/:id/join
func (h *Handlers) Join(c *fiber.Ctx) error {
	id, err := rideID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	actor, _ := middleware.ActorID(c)
	ride, err := h.Service.JoinRide(c.UserContext(), c.Params("slug"), id, actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Joined ride successfully", ride, nil)
}

// Finish POST /api/v1/circles/:slug/rides/:id/finish
func (h *Handlers) Finish(c *fiber.Ctx) error {
	id, err := rideID(c)
	if err != nil {
		return response.FromError(c, err)
	}
	actor, _ := middleware.ActorID(c)
	ride, err := h.Service.EndRide(c.UserContext(), c.Params("slug"), id, actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ride finished", ride, nil)
}
