package service

import "context"

// MailMessage is a rendered email ready for transport.
type MailMessage struct {
	To       string
	Subject  string
	HTMLBody string
}

// MailSender delivers rendered messages.
type MailSender interface {
	Send(ctx context.Context, msg MailMessage) error
}

// MailRenderer produces the subject and HTML body of a named template.
type MailRenderer interface {
	Render(name string, data any) (subject, body string, err error)
}
