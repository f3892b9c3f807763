package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// DefaultSMTPPort is the implicit TLS submission port.
const DefaultSMTPPort = 465

var ErrSMTPHostRequired = errors.New("mail: smtp host required")

// SMTPConfig configures the SMTP relay connection.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// ImplicitTLS dials TLS directly (port 465); otherwise STARTTLS is required.
	ImplicitTLS bool
	// Auth names the SMTP auth mechanism ("PLAIN", "LOGIN", "CRAM-MD5").
	Auth    string
	Timeout time.Duration
}

// SMTPSender delivers messages with github.com/wneessen/go-mail.
type SMTPSender struct {
	cfg SMTPConfig
}

var _ interfaces.MailSender = (*SMTPSender)(nil)

// NewSMTPSender returns a sender for cfg.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, ErrSMTPHostRequired
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send dials the relay and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg interfaces.MailMessage) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("mail: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.ImplicitTLS {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	if s.cfg.Username != "" {
		auth := gomail.SMTPAuthPlain
		if mechanism := strings.ToUpper(strings.TrimSpace(s.cfg.Auth)); mechanism != "" {
			auth = gomail.SMTPAuthType(mechanism)
		}
		opts = append(opts,
			gomail.WithSMTPAuth(auth),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func buildMessage(msg interfaces.MailMessage) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("mail: from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail: to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mail: reply-to address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return m, nil
}
