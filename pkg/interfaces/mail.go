package interfaces

import "context"

// MailMessage is a single outbound HTML email.
type MailMessage struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// MailSender delivers messages through an SMTP relay or any other transport.
type MailSender interface {
	Send(ctx context.Context, msg MailMessage) error
}
