// Package mail sends the pre-rendered messages credential.Manager queues
// in email_queue. It owns only SMTP transport; subject/body rendering
// happens in the credential package via text/template.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/lwsgs/lwsgs/config"

	"github.com/domodwyer/mailyak/v3"
)

// Mailer sends queued email content over SMTP.
type Mailer struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	authMethod string
	useTLS     bool
}

// New creates a Mailer from the SMTP section of config.
func New(cfg config.Smtp) *Mailer {
	return &Mailer{
		host:       cfg.Host,
		port:       cfg.Port,
		username:   cfg.Username,
		password:   cfg.Password,
		from:       cfg.From,
		authMethod: cfg.AuthMethod,
		useTLS:     cfg.UseTLS,
	}
}

func (m *Mailer) auth() smtp.Auth {
	switch m.authMethod {
	case "login":
		return &loginAuth{username: m.username, password: m.password}
	case "cram-md5":
		return smtp.CRAMMD5Auth(m.username, m.password)
	case "none":
		return nil
	default: // "plain" or empty
		return smtp.PlainAuth("", m.username, m.password, m.host)
	}
}

// Send delivers content (as rendered by the credential package's email
// templates: "From: ...\nSubject: ...\n\n<body>") to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, content string) error {
	subject, body := splitHeader(content)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var client *mailyak.MailYak
	if m.useTLS {
		var err error
		client, err = mailyak.NewWithTLS(addr, m.auth(), &tls.Config{ServerName: m.host})
		if err != nil {
			return fmt.Errorf("mail: create client: %w", err)
		}
	} else {
		// Plain connection; mailyak upgrades via STARTTLS when offered.
		client = mailyak.New(addr, m.auth())
	}

	client.To(to)
	client.From(m.from)
	client.Subject(subject)
	client.Plain().Set(body)

	done := make(chan error, 1)
	go func() { done <- client.Send() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: send: %w", err)
		}
	}
	return nil
}

// splitHeader pulls the Subject line out of the rendered email_queue
// content and returns it alongside the remaining body. The From line is
// discarded since Mailer.from is authoritative for the envelope sender.
func splitHeader(content string) (subject, body string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "Subject: ") {
			subject = strings.TrimPrefix(line, "Subject: ")
		}
		if strings.TrimSpace(line) == "" {
			body = strings.Join(lines[i+1:], "\n")
			break
		}
	}
	return subject, body
}
