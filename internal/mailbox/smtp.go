package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hal9000y/mail-agent/internal/draft"
)

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// StartTLS upgrades a plain connection (port 587); otherwise the connection
	// uses implicit TLS (port 465).
	StartTLS bool
	Timeout  time.Duration
}

type smtpClient interface {
	StartTLS(cfg *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

type smtpDialer func(ctx context.Context, cfg SMTPConfig) (smtpClient, error)

// SMTP sends mail through an authenticated SMTP submission server.
type SMTP struct {
	cfg  SMTPConfig
	dial smtpDialer
	now  func() time.Time
	log  *zap.Logger
}

// NewSMTP creates an SMTP sender.
func NewSMTP(cfg SMTPConfig, log *zap.Logger) *SMTP {
	return &SMTP{cfg: cfg, dial: dialSMTP, now: time.Now, log: log}
}

// Send delivers e from the configured account.
func (s *SMTP) Send(ctx context.Context, e draft.Email) error {
	msg, err := BuildMessage(s.cfg.Username, e, s.now())
	if err != nil {
		return fmt.Errorf("BuildMessage failed: %w", err)
	}

	if err := s.deliver(ctx, e.Recipient, msg); err != nil {
		return &TransportError{Op: "send", Transport: "smtp", Err: err}
	}

	s.log.Info("email sent", zap.String("transport", "smtp"), zap.String("to", e.Recipient))

	return nil
}

func (s *SMTP) deliver(ctx context.Context, to string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	c, err := s.dial(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer func() { _ = c.Close() }()

	if s.cfg.StartTLS {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("c.StartTLS failed: %w", err)
		}
	}

	if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
		return fmt.Errorf("c.Auth failed: %w", err)
	}
	if err := c.Mail(s.cfg.Username); err != nil {
		return fmt.Errorf("c.Mail failed: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("c.Rcpt(%s) failed: %w", to, err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("c.Data failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("w.Write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("w.Close failed: %w", err)
	}

	if err := c.Quit(); err != nil {
		s.log.Warn("smtp quit failed", zap.Error(err))
	}

	return nil
}

func dialSMTP(ctx context.Context, cfg SMTPConfig) (smtpClient, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	d := &net.Dialer{Timeout: cfg.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if cfg.StartTLS {
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: cfg.Host}}
		conn, err = td.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s failed: %w", addr, err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp.NewClient failed: %w", err)
	}

	return c, nil
}
