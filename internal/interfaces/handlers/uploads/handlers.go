package uploads

import (
	"errors"

	uploadsvc "ride-backend/internal/application/uploads"
	"ride-backend/internal/domain"
	"ride-backend/internal/middleware"
	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"file_name"`
	Circle   string `json:"circle"`
}

// CirclePicture POST /api/v1/uploads/circle-picture
func (h *Handlers) CirclePicture(c *fiber.Ctx) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" || req.Circle == "" {
		return response.Error(c, "file_name and circle are required", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.ActorID(c)
	res, err := h.Service.CirclePictureURL(c.UserContext(), req.Circle, actor, req.FileName)
	return h.respond(c, uploadsvc.CirclePicturesBucket, res, err)
}

// ProfilePicture POST /api/v1/uploads/profile-picture
func (h *Handlers) ProfilePicture(c *fiber.Ctx) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.ActorID(c)
	res, err := h.Service.ProfilePictureURL(c.UserContext(), actor, req.FileName)
	return h.respond(c, uploadsvc.ProfilePicturesBucket, res, err)
}

func (h *Handlers) respond(c *fiber.Ctx, bucket string, res *uploadsvc.UploadResult, err error) error {
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return response.FromError(c, err)
		}
		log.Error().Err(err).Str("bucket", bucket).Msg("upload: failed to generate signed URL")
		return response.Error(c, "Failed to generate upload URL", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
