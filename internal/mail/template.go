package mail

import (
	"bytes"
	"html/template"
	"strings"
)

const (
	// DemoRequestSubject is the subject of every relayed demo request.
	DemoRequestSubject = "New Demo Request from DialogTuple"

	notAvailable     = "N/A"
	noMessageDefault = "No message provided."
)

var demoRequestTemplate = template.Must(template.New("demo_request").Parse(`
<h2>New Demo Request</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Company:</strong> {{.Company}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

// RenderDemoRequest renders the notification body. Empty fields fall back to
// placeholders and every value is HTML escaped.
func RenderDemoRequest(req DemoRequest) (string, error) {
	view := DemoRequest{
		Name:    orDefault(req.Name, notAvailable),
		Email:   orDefault(req.Email, notAvailable),
		Company: orDefault(req.Company, notAvailable),
		Message: orDefault(req.Message, noMessageDefault),
	}
	var buf bytes.Buffer
	if err := demoRequestTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
