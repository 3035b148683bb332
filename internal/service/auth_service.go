package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/site-cms/internal/auth"
	"github.com/spec-kit/site-cms/internal/config"
	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/events"
	"github.com/spec-kit/site-cms/internal/repository"
)

// AuthService coordinates login and password flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	throttle   *auth.LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
	compare    func(hashed, plain string) error

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Throttle          *auth.LoginThrottle
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		throttle:   deps.Throttle,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   cfg.PasswordResetTTL(),
		now:        time.Now,
		compare:    auth.ComparePassword,
	}
}

// Login checks credentials. Unknown emails, inactive accounts and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if !s.throttle.Allowed(ctx, email) {
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		// Pay the bcrypt cost anyway so response time does not reveal
		// which emails have accounts.
		_ = s.compare(s.placeholderHash(), password)
		s.throttle.RecordFailure(ctx, email)
		return nil, ErrIncorrectCredentials
	}
	if err != nil {
		return nil, err
	}

	hash := user.PasswordHash
	if !user.Active {
		hash = s.placeholderHash()
	}
	if s.compare(hash, password) != nil || !user.Active {
		s.throttle.RecordFailure(ctx, email)
		return nil, ErrIncorrectCredentials
	}

	s.throttle.Reset(ctx, email)
	return user, nil
}

// UpdatePassword verifies the current password before storing the new one.
// Tokens issued before the change stop working.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if auth.ComparePassword(user.PasswordHash, currentPassword) != nil {
		return nil, ErrWrongCurrentPassword
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return nil, err
	}
	return user, nil
}

// ForgotPassword issues a reset token for an active account with the given
// email. Unknown emails succeed silently so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !user.Active {
		return nil
	}

	if err := s.resets.DeleteForUser(ctx, user.ID); err != nil {
		return err
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	record := &domain.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, record); err != nil {
		return err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventPasswordResetRequested, user.ID, nil,
		events.PasswordResetRequestedPayload{
			UserID:    user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Token:     token,
			ExpiresAt: record.ExpiresAt,
		}))
	return nil
}

// ResetPassword redeems a reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*domain.User, error) {
	record, err := s.resets.GetByHash(ctx, auth.HashResetToken(strings.TrimSpace(token)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrResetTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if !record.Usable(s.now()) {
		return nil, ErrResetTokenInvalid
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrResetTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrResetTokenInvalid
	}

	// The token is consumed only once the new password is stored, so a
	// failed update leaves it redeemable.
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return nil, err
	}
	if err := s.resets.MarkUsed(ctx, record.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, err
	}
	s.throttle.Reset(ctx, user.Email)
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, nil
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, err
	}
	admin := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Active:       true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", admin.ID))
	return true, nil
}

// setPassword stores a new hash and stamps the change one second in the past
// so the token issued right after the change is not itself considered stale.
// placeholderHash is compared against when there is no usable account hash.
func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("placeholder-password", s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to build placeholder password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	changedAt := s.now().Add(-time.Second)
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt
	return notFound(s.users.Update(ctx, user), "user")
}
