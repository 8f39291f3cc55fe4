package users

import (
	usersvc "ride-backend/internal/application/users"
	"ride-backend/internal/middleware"
	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *usersvc.Service
}

// Signup POST /api/v1/users/signup
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var in usersvc.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.Signup(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Account created, check your email to verify it", fiber.Map{"user": u}, nil)
}

type verifyRequest struct {
	Token string `json:"token"`
}

// Verify POST /api/v1/users/verify
func (h *Handlers) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return response.Error(c, "token is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Verify(c.UserContext(), req.Token); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Account verified, you can now use the app", nil, nil)
}

// Profile GET /api/v1/users/me/profile
func (h *Handlers) Profile(c *fiber.Ctx) error {
	actor, _ := middleware.ActorID(c)
	p, err := h.Service.GetProfile(c.UserContext(), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile fetched successfully", p, nil)
}
