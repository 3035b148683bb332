package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/site-cms/internal/config"
)

const smtpTimeout = 15 * time.Second

// Message is a rendered email ready for delivery.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when a host is configured and a log mailer otherwise.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		logger.Warn("SMTP_HOST not provided; emails will be logged instead of sent")
		return NewLogMailer(logger)
	}
	mailer, err := NewSMTPMailer(cfg)
	if err != nil {
		logger.Error("invalid SMTP settings; emails will be logged instead of sent", zap.Error(err))
		return NewLogMailer(logger)
	}
	return mailer
}

type sendFunc func(ctx context.Context, msg *gomail.Msg) error

// SMTPMailer sends MIME-encoded mail through a single SMTP relay.
type SMTPMailer struct {
	from string
	send sendFunc
	now  func() time.Time
}

// NewSMTPMailer builds a mailer for the relay described by cfg. STARTTLS is
// used when the relay offers it.
func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTimeout(smtpTimeout),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: configure smtp client: %w", err)
	}

	// The client holds one connection at a time; workers take turns.
	var mu sync.Mutex
	return &SMTPMailer{
		from: cfg.From,
		send: func(ctx context.Context, msg *gomail.Msg) error {
			mu.Lock()
			defer mu.Unlock()
			return client.DialAndSendWithContext(ctx, msg)
		},
		now: time.Now,
	}, nil
}

// Send delivers msg. Cancelling ctx aborts the SMTP exchange.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	out, err := m.compose(msg)
	if err != nil {
		return err
	}
	if err := m.send(ctx, out); err != nil {
		return fmt.Errorf("mail: send %q: %w", msg.Subject, err)
	}
	return nil
}

// compose builds a quoted-printable HTML message.
func (m *SMTPMailer) compose(msg Message) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("mail: from address: %w", err)
	}
	if err := out.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail: recipient address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := out.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mail: reply-to address: %w", err)
		}
	}
	out.Subject(msg.Subject)
	out.SetDateWithValue(m.now())
	out.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return out, nil
}

// LogMailer records messages in the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a log mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email not sent (no SMTP configured)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTML)),
	)
	return nil
}
