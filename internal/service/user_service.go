package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/site-cms/internal/auth"
	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/events"
	"github.com/spec-kit/site-cms/internal/repository"
)

// UserService backs the admin user-management endpoints.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, logger: logger, bcryptCost: bcryptCost}
}

// CreateUser adds an account. The role defaults to user.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	var actorID *string
	if actor != nil {
		actorID = &actor.ID
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserCreated, user.ID, actorID,
		events.UserCreatedPayload{UserID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)}))
	return user, nil
}

// ListUsers pages through all accounts.
func (s *UserService) ListUsers(ctx context.Context, page repository.Page) ([]domain.User, int, error) {
	return s.users.List(ctx, page)
}

// GetUser loads any account, active or not.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// ChangeRole updates another user's role.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.User, id string, role domain.Role) (*domain.User, error) {
	if actor != nil && actor.ID == id {
		return nil, ErrSelfModification
	}
	if err := s.users.SetRole(ctx, id, role); err != nil {
		return nil, notFound(err, "user")
	}
	return s.GetUser(ctx, id)
}

// Deactivate disables another user's account. Their tokens stop resolving immediately.
func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, id string) error {
	if actor != nil && actor.ID == id {
		return ErrSelfModification
	}
	return notFound(s.users.Deactivate(ctx, id), "user")
}
