package memberships

import (
	"strings"

	membersvc "ride-backend/internal/application/memberships"
	"ride-backend/internal/middleware"
	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *membersvc.Service
}

type joinRequest struct {
	InvitationCode string `json:"invitation_code"`
}

// List GET /api/v1/circles/:slug/members
func (h *Handlers) List(c *fiber.Ctx) error {
	actor, _ := middleware.ActorID(c)
	members, err := h.Service.List(c.UserContext(), c.Params("slug"), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Members fetched successfully", members, fiber.Map{"count": len(members)})
}

// Join POST /api/v1/circles/:slug/members
func (h *Handlers) Join(c *fiber.Ctx) error {
	var req joinRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.InvitationCode) == "" {
		return response.Error(c, "invitation_code is required", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.ActorID(c)
	m, err := h.Service.JoinViaInvitation(c.UserContext(), c.Params("slug"), actor, strings.TrimSpace(req.InvitationCode))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Joined circle successfully", m, nil)
}

// Get GET /api/v1/circles/:slug/members/:username
func (h *Handlers) Get(c *fiber.Ctx) error {
	actor, _ := middleware.ActorID(c)
	m, err := h.Service.Get(c.UserContext(), c.Params("slug"), actor, c.Params("username"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member fetched successfully", m, nil)
}

// Leave DELETE /api/v1/circles/:slug/members/:username
func (h *Handlers) Leave(c *fiber.Ctx) error {
	actor, _ := middleware.ActorID(c)
	if err := h.Service.Leave(c.UserContext(), c.Params("slug"), actor, c.Params("username")); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Membership removed", nil, nil)
}
