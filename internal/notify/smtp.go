package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
)

type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	// ImplicitTLS dials TLS directly and logs in (production). Without it the
	// session is plain SMTP with no auth, for local relays.
	ImplicitTLS bool
}

type SMTPTransport struct {
	client *smtp.Client
}

// DialSMTP opens one SMTP session, logging in when ImplicitTLS is set.
func DialSMTP(ctx context.Context, opts SMTPOptions) (*SMTPTransport, error) {
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))

	var conn net.Conn
	var err error
	if opts.ImplicitTLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: opts.Host}}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		d := &net.Dialer{}
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial smtp %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, opts.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake %s: %w", addr, err)
	}
	if err := client.Hello("localhost"); err != nil {
		client.Close()
		return nil, fmt.Errorf("smtp ehlo: %w", err)
	}
	if opts.ImplicitTLS {
		auth := smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp login: %w", err)
		}
	}
	return &SMTPTransport{client: client}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := t.send(msg); err != nil {
		// Leave the session usable for the next message.
		_ = t.client.Reset()
		return err
	}
	return nil
}

func (t *SMTPTransport) send(msg Message) error {
	if err := t.client.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range msg.Bcc {
		if err := t.client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := t.client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(buildMIME(msg)); err != nil {
		w.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end of data: %w", err)
	}
	return nil
}

func (t *SMTPTransport) Close() error {
	if err := t.client.Quit(); err != nil {
		t.client.Close()
		return err
	}
	return nil
}
