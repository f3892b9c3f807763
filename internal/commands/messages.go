package commands

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/newtuple/dialogtuple/internal/documents"
	"github.com/newtuple/dialogtuple/internal/mail"
)

const (
	uploadDocumentMessageType  = "documents.upload"
	sendDemoRequestMessageType = "mail.demo_request"
	reloadBlogMessageType      = "blog.reload"
)

// UploadDocumentCommand stores a base64 encoded DOCX in the object store.
// Result, when set, receives the stored path.
type UploadDocumentCommand struct {
	FileName   string                   `json:"fileName"`
	FileBase64 string                   `json:"fileBase64"`
	Result     *documents.UploadResult `json:"-"`
}

// Type implements command.Message.
func (UploadDocumentCommand) Type() string { return uploadDocumentMessageType }

// Validate requires both fields and a .docx file name.
func (cmd UploadDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.FileName, validation.Required, validation.By(func(value any) error {
			name, _ := value.(string)
			if !documents.IsDocx(strings.TrimSpace(name)) {
				return validation.NewError("documents.upload.invalid_type", "only .docx files are allowed")
			}
			return nil
		})),
		validation.Field(&cmd.FileBase64, validation.Required),
	)
}

// SendDemoRequestCommand relays a demo request to the sales inbox.
type SendDemoRequestCommand struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// Type implements command.Message.
func (SendDemoRequestCommand) Type() string { return sendDemoRequestMessageType }

// Validate checks the optional email address and bounds free text fields.
func (cmd SendDemoRequestCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Name, validation.Length(0, 200)),
		validation.Field(&cmd.Company, validation.Length(0, 200)),
		validation.Field(&cmd.Email, validation.Length(0, 320), validation.By(func(value any) error {
			email, _ := value.(string)
			if mail.ValidateEmail(email) != nil {
				return validation.NewError("mail.demo_request.email_invalid", "email must be a valid address")
			}
			return nil
		})),
		validation.Field(&cmd.Message, validation.Length(0, 10000)),
	)
}

func (cmd SendDemoRequestCommand) demoRequest() mail.DemoRequest {
	return mail.DemoRequest{
		Name:    cmd.Name,
		Email:   cmd.Email,
		Company: cmd.Company,
		Message: cmd.Message,
	}
}

// ReloadBlogCommand drops the blog cache and reassembles the posts.
type ReloadBlogCommand struct {
	Reason string `json:"reason,omitempty"`
}

// Type implements command.Message.
func (ReloadBlogCommand) Type() string { return reloadBlogMessageType }

func (cmd ReloadBlogCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Reason, validation.Length(0, 200)),
	)
}
