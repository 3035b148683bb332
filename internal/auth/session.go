package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/site-cms/internal/api/dto"
	"github.com/spec-kit/site-cms/internal/domain"
	apperrors "github.com/spec-kit/site-cms/pkg/util/errorutil"
)

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName string
	CookieTTL  time.Duration
	Secure     bool
}

// SessionResponder mints a token after a successful credential check and
// hands it to the client as both a cookie and a response field.
type SessionResponder struct {
	tokens *TokenManager
	cfg    SessionConfig
	now    func() time.Time
}

// NewSessionResponder constructs a responder.
func NewSessionResponder(tokens *TokenManager, cfg SessionConfig) *SessionResponder {
	if cfg.CookieName == "" {
		cfg.CookieName = "jwt"
	}
	return &SessionResponder{tokens: tokens, cfg: cfg, now: time.Now}
}

// Issue signs a token for user, sets the session cookie and writes the login body.
func (s *SessionResponder) Issue(c *fiber.Ctx, status int, user *domain.User) error {
	token, _, err := s.tokens.Sign(user.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	c.Cookie(s.cookie(token, s.now().Add(s.cfg.CookieTTL)))
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
		},
	})
}

// Clear expires the session cookie.
func (s *SessionResponder) Clear(c *fiber.Ctx) error {
	c.Cookie(s.cookie("", s.now().Add(-time.Hour)))
	return c.JSON(fiber.Map{"success": true})
}

func (s *SessionResponder) cookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
