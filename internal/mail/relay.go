// Package mail relays demo requests from the marketing site to the sales
// inbox through an SMTP server.
package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

var (
	ErrSenderRequired    = errors.New("mail: sender required")
	ErrRecipientRequired = errors.New("mail: recipient required")
	ErrInvalidEmail      = errors.New("mail: email address is invalid")
	ErrDeliveryFailed    = errors.New("mail: delivery failed")
)

// DemoRequest is the form submitted from the site.
type DemoRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// RelayConfig addresses outgoing notifications.
type RelayConfig struct {
	From    string
	To      []string
	Subject string
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithLogger sets the relay logger.
func WithLogger(logger interfaces.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logging.Ensure(logger)
	}
}

// WithRegisterer records delivery counts on reg.
func WithRegisterer(reg prometheus.Registerer) RelayOption {
	return func(r *Relay) {
		if reg == nil {
			return
		}
		r.deliveries = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "dialogtuple",
			Subsystem: "mail",
			Name:      "demo_requests_total",
			Help:      "Demo request notifications by result.",
		}, []string{"result"})
	}
}

// Relay renders demo requests and hands them to a MailSender.
type Relay struct {
	sender     interfaces.MailSender
	cfg        RelayConfig
	logger     interfaces.Logger
	deliveries *prometheus.CounterVec
}

// NewRelay validates cfg and returns a relay backed by sender.
func NewRelay(sender interfaces.MailSender, cfg RelayConfig, opts ...RelayOption) (*Relay, error) {
	if sender == nil || strings.TrimSpace(cfg.From) == "" {
		return nil, ErrSenderRequired
	}
	if len(cfg.To) == 0 {
		return nil, ErrRecipientRequired
	}
	if cfg.Subject == "" {
		cfg.Subject = DemoRequestSubject
	}
	r := &Relay{sender: sender, cfg: cfg, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// ValidateEmail accepts an empty value or a single RFC 5322 address.
func ValidateEmail(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	if _, err := netmail.ParseAddress(trimmed); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// SendDemoRequest renders req and delivers it once.
func (r *Relay) SendDemoRequest(ctx context.Context, req DemoRequest) error {
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	body, err := RenderDemoRequest(req)
	if err != nil {
		return fmt.Errorf("mail: render demo request: %w", err)
	}

	msg := interfaces.MailMessage{
		From:    r.cfg.From,
		To:      append([]string(nil), r.cfg.To...),
		Subject: r.cfg.Subject,
		HTML:    body,
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		msg.ReplyTo = email
	}

	logger := r.logger.WithContext(ctx)
	if err := r.sender.Send(ctx, msg); err != nil {
		r.count("error")
		logger.Error("demo request delivery failed", "error", err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	r.count("ok")
	logger.Info("demo request delivered", "company", strings.TrimSpace(req.Company))
	return nil
}

func (r *Relay) count(result string) {
	if r.deliveries != nil {
		r.deliveries.WithLabelValues(result).Inc()
	}
}
