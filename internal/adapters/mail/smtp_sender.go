package mail

import (
	"errors"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"cafe-pickup-service/internal/ports"
)

// SMTP-backed implementation of the MailSender port. Each Send dials a
// fresh connection; delivery volume here is a handful of messages per
// request, not a stream worth keeping a connection open for.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) (*SMTPSender, error) {
	if host == "" {
		return nil, errors.New("smtp sender: host is required")
	}
	if from == "" {
		from = username
	}
	if from == "" {
		return nil, errors.New("smtp sender: sender address is required")
	}

	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}, nil
}

func (s *SMTPSender) Send(msg ports.Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
