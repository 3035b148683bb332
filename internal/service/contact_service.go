package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/events"
	"github.com/spec-kit/site-cms/internal/repository"
)

// ContactService stores and triages contact-form messages.
type ContactService struct {
	contacts   repository.ContactRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ContactInput is a visitor's message.
type ContactInput struct {
	Name     string
	Email    string
	Phone    string
	Subject  string
	Message  string
	RemoteIP string
}

// NewContactService constructs the service.
func NewContactService(contacts repository.ContactRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{contacts: contacts, dispatcher: dispatcher, logger: logger}
}

// Submit stores a message and announces it.
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*domain.Contact, error) {
	contact := &domain.Contact{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
		Subject:  strings.TrimSpace(input.Subject),
		Message:  strings.TrimSpace(input.Message),
		RemoteIP: input.RemoteIP,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventContactSubmitted, contact.ID, nil,
		events.ContactSubmittedPayload{
			ContactID: contact.ID,
			Name:      contact.Name,
			Email:     contact.Email,
			Phone:     contact.Phone,
			Subject:   contact.Subject,
			Message:   contact.Message,
		}))
	return contact, nil
}

// List pages through messages, optionally filtered by handled state.
func (s *ContactService) List(ctx context.Context, handled *bool, page repository.Page) ([]domain.Contact, int, error) {
	return s.contacts.List(ctx, repository.ContactFilter{Handled: handled, Page: page})
}

// Get loads a single message.
func (s *ContactService) Get(ctx context.Context, id string) (*domain.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "contact")
	}
	return contact, nil
}

// SetHandled flips the handled flag and returns the updated message.
func (s *ContactService) SetHandled(ctx context.Context, id string, handled bool) (*domain.Contact, error) {
	if err := s.contacts.SetHandled(ctx, id, handled); err != nil {
		return nil, notFound(err, "contact")
	}
	return s.Get(ctx, id)
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	return notFound(s.contacts.Delete(ctx, id), "contact")
}
