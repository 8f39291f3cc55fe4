package auth

import (
	"context"

	authsvc "ride-backend/internal/application/auth"
	"ride-backend/internal/middleware"
	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login creates a fresh session for the user and
// tracks it under user_sessions:<user_id>.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(req.Email, req.Password)
	if err != nil {
		switch err {
		case authsvc.ErrEmailPasswordRequired:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case authsvc.ErrInvalidEmail, authsvc.ErrIncorrectPassword:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			return response.FromError(c, err)
		}
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   user.UserID.String(),
		Username: user.Username,
		Email:    user.Email,
	})

	if err := h.Rdb.SAdd(context.Background(), middleware.UserSessionsPrefix+user.UserID.String(), sessionID).Err(); err != nil {
		log.Error().Err(err).Msg("auth/login: track session")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", fiber.Map{
		"user": authsvc.SessionUserShape{
			UserID:   user.UserID.String(),
			Username: user.Username,
			Email:    user.Email,
		},
	}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		log.Debug().Str("path", "/auth/me").Bool("cookie_present", c.Cookies(middleware.SessionCookieName) != "").
			Msg("auth/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if actor, ok := middleware.ActorID(c); ok && sessionID != "" {
		_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+actor.String(), sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions ends every session of the current user, on all devices.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	actor, ok := middleware.ActorID(c)
	if !ok {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	n, err := authsvc.DestroyUserSessions(c.UserContext(), h.Rdb, actor.String())
	if err != nil {
		log.Error().Err(err).Str("user_id", actor.String()).Msg("auth/logout-all: destroy sessions")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out of all sessions", fiber.Map{"sessions": n}, nil)
}
