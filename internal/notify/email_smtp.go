package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

// SMTPSender sends email through a plain SMTP relay (a Gmail account in the
// original deployment). It also carries the gateway SMS fallback, since that
// path is email underneath.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logging.Logger
}

// SMTPConfig holds configuration for the SMTP relay.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
}

// NewSMTPSender creates an SMTP email sender, or nil when the relay
// credentials are absent.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if cfg.User == "" || cfg.Pass == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   cfg.User,
		logger: logger,
	}
}

// Send delivers one message over SMTP. gomail has no context support, so the
// dial runs in a goroutine and cancellation abandons it.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
		if msg.Body != "" {
			m.AddAlternative("text/plain", msg.Body)
		}
	} else {
		m.SetBody("text/plain", msg.Body)
	}

	errc := make(chan error, 1)
	go func() { errc <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-errc:
		if err != nil {
			s.logger.Error("smtp send failed", "error", err, "to", msg.To)
			return fmt.Errorf("notify: smtp send failed: %w", err)
		}
		s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ EmailSender = (*SMTPSender)(nil)
