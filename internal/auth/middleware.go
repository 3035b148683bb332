package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/site-cms/internal/domain"
)

// UserDirectory resolves token subjects to users. FindByID returns an error
// wrapping domain.ErrNotFound when no active user has the id.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// DecisionObserver is notified of every authentication outcome.
type DecisionObserver interface {
	ObserveAuthDecision(outcome string)
}

// MiddlewareConfig tunes token extraction and directory lookups.
type MiddlewareConfig struct {
	CookieName    string
	LookupTimeout time.Duration
	Observer      DecisionObserver
}

// AuthMiddleware validates bearer tokens and loads the calling user.
type AuthMiddleware struct {
	tokens        *TokenManager
	directory     UserDirectory
	cookieName    string
	lookupTimeout time.Duration
	observer      DecisionObserver
	logger        *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, directory UserDirectory, cfg MiddlewareConfig, logger *zap.Logger) *AuthMiddleware {
	if cfg.CookieName == "" {
		cfg.CookieName = "jwt"
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		tokens:        tokens,
		directory:     directory,
		cookieName:    cfg.CookieName,
		lookupTimeout: cfg.LookupTimeout,
		observer:      cfg.Observer,
		logger:        logger,
	}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	user, outcome, err := m.authenticate(c)
	m.observe(outcome)
	if err != nil {
		m.logRejection(c, outcome, err)
		return err
	}
	setIdentity(c, Authenticated(user))
	return c.Next()
}

// Optional attaches the user when the request carries a valid credential and
// otherwise continues anonymously. It never rejects a request.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	user, outcome, err := m.authenticate(c)
	if outcome != OutcomeUnauthenticated {
		m.observe(outcome)
	}
	if err != nil {
		if outcome != OutcomeUnauthenticated {
			m.logRejection(c, outcome, err)
		}
		setIdentity(c, Anonymous)
		return c.Next()
	}
	setIdentity(c, Authenticated(user))
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*domain.User, Outcome, error) {
	token := m.extractToken(c)
	if token == "" {
		return nil, OutcomeUnauthenticated, ErrUnauthenticated
	}

	claims, err := m.tokens.Verify(token)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return nil, OutcomeTokenExpired, ErrExpiredToken
	case err != nil:
		return nil, OutcomeInvalidToken, ErrRejectedToken
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), m.lookupTimeout)
	defer cancel()

	user, err := m.directory.FindByID(ctx, claims.SubjectID())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, OutcomeUserGone, ErrUserGone
	case err != nil:
		return nil, OutcomeDirectoryUnavailable, directoryUnavailable(err)
	case user == nil:
		return nil, OutcomeUserGone, ErrUserGone
	}

	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, OutcomeCredentialRotated, ErrCredentialRotated
	}
	return user, OutcomeAuthorized, nil
}

// extractToken prefers the Authorization header and falls back to the session cookie.
func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	return strings.TrimSpace(c.Cookies(m.cookieName))
}

func (m *AuthMiddleware) observe(outcome Outcome) {
	if m.observer != nil {
		m.observer.ObserveAuthDecision(string(outcome))
	}
}

func (m *AuthMiddleware) logRejection(c *fiber.Ctx, outcome Outcome, err error) {
	fields := []zap.Field{
		zap.String("outcome", string(outcome)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	}
	if outcome == OutcomeDirectoryUnavailable {
		m.logger.Warn("auth directory lookup failed", append(fields, zap.Error(err))...)
		return
	}
	m.logger.Debug("request not authenticated", fields...)
}
