package ports

// Message is one outbound email: subject, recipient, HTML body.
// The sender address belongs to the transport configuration.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Port: a boundary for delivering email. A nil error means the transport
// accepted the message; any transport problem surfaces as the error.
type MailSender interface {
	Send(msg Message) error
}
