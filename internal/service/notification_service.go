package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/site-cms/internal/config"
	"github.com/spec-kit/site-cms/internal/events"
	"github.com/spec-kit/site-cms/internal/mail"
)

// NotificationService turns domain events into emails.
type NotificationService struct {
	mailer   mail.Mailer
	renderer *mail.Renderer
	cfg      config.MailConfig
	siteName string
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(mailer mail.Mailer, renderer *mail.Renderer, cfg config.MailConfig, siteName string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		mailer:   mailer,
		renderer: renderer,
		cfg:      cfg,
		siteName: siteName,
		logger:   logger,
		now:      time.Now,
	}
}

// EventTypes lists the events Handle understands.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventContactSubmitted,
		events.EventPasswordResetRequested,
		events.EventUserCreated,
	}
}

// RegisterHandlers subscribes Handle synchronously for every supported event.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range n.EventTypes() {
		dispatcher.Subscribe(eventType, n.Handle)
	}
}

// Handle sends the emails belonging to event.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch payload := event.Payload.(type) {
	case events.ContactSubmittedPayload:
		return n.contactSubmitted(ctx, payload)
	case events.PasswordResetRequestedPayload:
		return n.passwordResetRequested(ctx, payload)
	case events.UserCreatedPayload:
		return n.userCreated(ctx, payload)
	default:
		n.logger.Debug("no notification for event", zap.String("event_type", string(event.Type)))
		return nil
	}
}

func (n *NotificationService) contactSubmitted(ctx context.Context, p events.ContactSubmittedPayload) error {
	data := map[string]any{
		"SiteName":   n.siteName,
		"Name":       p.Name,
		"Email":      p.Email,
		"Phone":      p.Phone,
		"Subject":    p.Subject,
		"Message":    p.Message,
		"ReceivedAt": n.now().UTC().Format(time.RFC1123),
	}

	if err := n.send(ctx, mail.TemplateContactNotification, data, mail.Message{
		To:      []string{n.cfg.ContactInbox},
		ReplyTo: p.Email,
		Subject: fmt.Sprintf("New contact message: %s", p.Subject),
	}); err != nil {
		return err
	}
	return n.send(ctx, mail.TemplateContactAck, data, mail.Message{
		To:      []string{p.Email},
		Subject: fmt.Sprintf("Thanks for contacting %s", n.siteName),
	})
}

func (n *NotificationService) passwordResetRequested(ctx context.Context, p events.PasswordResetRequestedPayload) error {
	minutes := int(math.Ceil(p.ExpiresAt.Sub(n.now()).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return n.send(ctx, mail.TemplatePasswordReset, map[string]any{
		"SiteName":     n.siteName,
		"Name":         p.Name,
		"ResetURL":     n.siteURL("/reset-password/" + p.Token),
		"ValidMinutes": minutes,
	}, mail.Message{
		To:      []string{p.Email},
		Subject: "Your password reset link",
	})
}

func (n *NotificationService) userCreated(ctx context.Context, p events.UserCreatedPayload) error {
	return n.send(ctx, mail.TemplateWelcome, map[string]any{
		"SiteName": n.siteName,
		"Name":     p.Name,
		"Role":     p.Role,
		"LoginURL": n.siteURL("/login"),
	}, mail.Message{
		To:      []string{p.Email},
		Subject: fmt.Sprintf("Your %s account", n.siteName),
	})
}

func (n *NotificationService) send(ctx context.Context, template string, data any, msg mail.Message) error {
	body, err := n.renderer.Render(template, data)
	if err != nil {
		return err
	}
	msg.HTML = body
	return n.mailer.Send(ctx, msg)
}

func (n *NotificationService) siteURL(path string) string {
	return strings.TrimRight(n.cfg.SiteURL, "/") + path
}
