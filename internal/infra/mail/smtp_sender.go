package mail

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"typeit/internal/domain/service"
	"typeit/internal/errors"
)

// SMTPSender delivers messages through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
	// sendMail is smtp.SendMail, replaceable in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a sender for host:port. Authentication is skipped when username is empty.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPSender{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		from:     from,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

// Send writes msg as a single-part HTML email.
// net/smtp has no context support, so ctx is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg service.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	if err := s.sendMail(s.addr, s.auth, s.from, []string{msg.To}, s.compose(msg)); err != nil {
		return errors.Wrapf(err, "smtp send to %s", s.addr)
	}

	return nil
}

func (s *SMTPSender) compose(msg service.MailMessage) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)

	return []byte(b.String())
}
