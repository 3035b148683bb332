package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/site-cms/internal/api/dto"
	"github.com/spec-kit/site-cms/internal/auth"
	"github.com/spec-kit/site-cms/internal/service"
)

// AuthHandler exposes login, logout and password endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	session *auth.SessionResponder
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, session *auth.SessionResponder) *AuthHandler {
	return &AuthHandler{auth: authService, session: session}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.session.Issue(c, http.StatusOK, user)
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return h.session.Clear(c)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"user": dto.NewUserResponse(user)})
}

// UpdatePassword handles PATCH /api/v1/auth/password and re-issues the session.
func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.auth.UpdatePassword(c.UserContext(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return h.session.Issue(c, http.StatusOK, updated)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password. The response does
// not reveal whether the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "If an account exists for that email, a reset link has been sent.",
	})
}

// ResetPassword handles PATCH /api/v1/auth/reset-password/:token.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.auth.ResetPassword(c.UserContext(), c.Params("token"), req.Password)
	if err != nil {
		return err
	}
	return h.session.Issue(c, http.StatusOK, user)
}
