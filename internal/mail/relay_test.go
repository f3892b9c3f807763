package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

type recordingSender struct {
	messages []interfaces.MailMessage
	err      error
}

func (s *recordingSender) Send(_ context.Context, msg interfaces.MailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func newTestRelay(t *testing.T, sender interfaces.MailSender, opts ...RelayOption) *Relay {
	t.Helper()
	relay, err := NewRelay(sender, RelayConfig{From: "site@example.com", To: []string{"sales@example.com"}}, opts...)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	return relay
}

func TestRenderDemoRequestDefaults(t *testing.T) {
	body, err := RenderDemoRequest(DemoRequest{})
	if err != nil {
		t.Fatalf("RenderDemoRequest: %v", err)
	}
	for _, want := range []string{
		"<h2>New Demo Request</h2>",
		"<p><strong>Name:</strong> N/A</p>",
		"<p><strong>Email:</strong> N/A</p>",
		"<p><strong>Company:</strong> N/A</p>",
		"<p>No message provided.</p>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body:\n%s", want, body)
		}
	}
}

func TestRenderDemoRequestEscapesInput(t *testing.T) {
	body, err := RenderDemoRequest(DemoRequest{Name: "<script>alert(1)</script>", Message: "Hi"})
	if err != nil {
		t.Fatalf("RenderDemoRequest: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("expected escaped input, got %s", body)
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Fatalf("expected escaped script tag, got %s", body)
	}
}

func TestSendDemoRequest(t *testing.T) {
	sender := &recordingSender{}
	reg := prometheus.NewRegistry()
	relay := newTestRelay(t, sender, WithRegisterer(reg))

	err := relay.SendDemoRequest(context.Background(), DemoRequest{Name: "Ada", Email: "ada@example.com", Company: "Engines"})
	if err != nil {
		t.Fatalf("SendDemoRequest: %v", err)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}
	msg := sender.messages[0]
	if msg.Subject != DemoRequestSubject || msg.From != "site@example.com" || msg.To[0] != "sales@example.com" {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	if msg.ReplyTo != "ada@example.com" {
		t.Fatalf("expected reply-to requester, got %q", msg.ReplyTo)
	}
	if !strings.Contains(msg.HTML, "Engines") {
		t.Fatalf("expected company in body, got %s", msg.HTML)
	}

	families, err := reg.Gather()
	if err != nil || len(families) != 1 || families[0].GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one delivery counted, got %v %v", families, err)
	}
}

func TestSendDemoRequestErrors(t *testing.T) {
	relay := newTestRelay(t, &recordingSender{err: errors.New("connection refused")})

	if err := relay.SendDemoRequest(context.Background(), DemoRequest{Email: "not-an-email"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	err := relay.SendDemoRequest(context.Background(), DemoRequest{Name: "Ada"})
	if !errors.Is(err, ErrDeliveryFailed) || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected wrapped delivery failure, got %v", err)
	}
}

func TestNewRelayRequiresAddresses(t *testing.T) {
	if _, err := NewRelay(&recordingSender{}, RelayConfig{To: []string{"a@example.com"}}); !errors.Is(err, ErrSenderRequired) {
		t.Fatalf("expected ErrSenderRequired, got %v", err)
	}
	if _, err := NewRelay(&recordingSender{}, RelayConfig{From: "a@example.com"}); !errors.Is(err, ErrRecipientRequired) {
		t.Fatalf("expected ErrRecipientRequired, got %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	_, err := buildMessage(interfaces.MailMessage{
		From:    "site@example.com",
		To:      []string{"sales@example.com"},
		ReplyTo: "ada@example.com",
		Subject: DemoRequestSubject,
		HTML:    "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}

	if _, err := buildMessage(interfaces.MailMessage{From: "not an address", To: []string{"sales@example.com"}}); err == nil {
		t.Fatalf("expected invalid from address error")
	}
}

func TestNewSMTPSenderDefaults(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{}); !errors.Is(err, ErrSMTPHostRequired) {
		t.Fatalf("expected ErrSMTPHostRequired, got %v", err)
	}
	sender, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p", ImplicitTLS: true})
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	if sender.cfg.Port != DefaultSMTPPort {
		t.Fatalf("expected default port, got %d", sender.cfg.Port)
	}
	if len(sender.clientOptions()) != 6 {
		t.Fatalf("expected port, timeout, tls and three auth options")
	}
}
