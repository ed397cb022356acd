package notify

import (
	"context"
	"mime"
	"strings"
)

// Message is one outgoing email. Bcc recipients go to the envelope only.
type Message struct {
	From     string
	Bcc      []string
	Subject  string
	HTMLBody string
}

// Transport is an open delivery session.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Opener starts a delivery session.
type Opener func(ctx context.Context) (Transport, error)

// buildMIME renders the headers and body written during the SMTP DATA phase.
func buildMIME(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + msg.From + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return []byte(b.String())
}
