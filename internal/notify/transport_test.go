package notify

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTPServer accepts one plain SMTP session and records what it receives.
type fakeSMTPServer struct {
	ln       net.Listener
	mu       sync.Mutex
	commands []string
	messages []string
	done     chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeSMTPServer{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTPServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	defer close(s.done)
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { conn.Write([]byte(line + "\r\n")) }
	reply("220 localhost ESMTP fake")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch {
		case verb == "EHLO":
			reply("250-localhost")
			reply("250 HELP")
		case verb == "RCPT" && strings.Contains(line, "reject"):
			reply("550 no such user")
		case verb == "DATA":
			reply("354 end with <CR><LF>.<CR><LF>")
			var data strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				data.WriteString(l)
			}
			s.mu.Lock()
			s.messages = append(s.messages, data.String())
			s.mu.Unlock()
			reply("250 queued")
		case verb == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestSMTPTransport_PlainSession(t *testing.T) {
	srv := startFakeSMTP(t)

	tr, err := DialSMTP(context.Background(), SMTPOptions{Host: "127.0.0.1", Port: srv.port()})
	require.NoError(t, err)

	err = tr.Send(context.Background(), Message{
		From:     "alerts@example.com",
		Bcc:      []string{"a@example.com", "b@example.com"},
		Subject:  "18+ Slots in Pune: AVAILABLE",
		HTMLBody: "<table></table>",
	})
	require.NoError(t, err)

	err = tr.Send(context.Background(), Message{
		From:    "alerts@example.com",
		Bcc:     []string{"reject@example.com"},
		Subject: "rejected",
	})
	assert.ErrorContains(t, err, "RCPT TO reject@example.com")

	err = tr.Send(context.Background(), Message{
		From:     "alerts@example.com",
		Bcc:      []string{"c@example.com"},
		Subject:  "after reset",
		HTMLBody: "ok",
	})
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	<-srv.done

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.messages, 2)
	assert.Contains(t, srv.messages[0], "Subject: 18+ Slots in Pune: AVAILABLE")
	assert.NotContains(t, srv.messages[0], "a@example.com")
	assert.Contains(t, srv.messages[1], "Subject: after reset")

	joined := strings.Join(srv.commands, "\n")
	assert.Contains(t, joined, "RCPT TO:<a@example.com>")
	assert.Contains(t, joined, "RCPT TO:<b@example.com>")
	assert.Contains(t, joined, "RSET")
	assert.NotContains(t, joined, "AUTH")
	assert.Equal(t, "QUIT", srv.commands[len(srv.commands)-1])
}

func TestDialSMTP_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = DialSMTP(context.Background(), SMTPOptions{Host: "127.0.0.1", Port: port})
	assert.ErrorContains(t, err, "dial smtp")
}

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESTransport_Send(t *testing.T) {
	api := &fakeSES{}
	tr := NewSESTransportWithAPI(api)

	err := tr.Send(context.Background(), Message{
		From:     "alerts@example.com",
		Bcc:      []string{"a@example.com"},
		Subject:  "18+ Slots in Pune: AVAILABLE",
		HTMLBody: "<table></table>",
	})
	require.NoError(t, err)
	require.Len(t, api.inputs, 1)

	in := api.inputs[0]
	assert.Equal(t, "alerts@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"a@example.com"}, in.Destination.BccAddresses)
	assert.Empty(t, in.Destination.ToAddresses)
	assert.Equal(t, "18+ Slots in Pune: AVAILABLE", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "<table></table>", aws.ToString(in.Message.Body.Html.Data))
	assert.NoError(t, tr.Close())
}

func TestSESTransport_SendError(t *testing.T) {
	throttled := errors.New("Throttling: Maximum sending rate exceeded")
	tr := NewSESTransportWithAPI(&fakeSES{err: throttled})
	err := tr.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, throttled)
}
