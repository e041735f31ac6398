package mailer

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"

	"github.com/vantahq/outreach-engine/internal/config"
)

// smtpSender matches gomail's dialer so tests can stub the wire.
type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers through a plain SMTP relay. Useful for self-hosted
// setups and local capture servers like MailHog.
type SMTPMailer struct {
	sender smtpSender
	from   string
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTP builds an SMTP-backed mailer from the mailer config.
func NewSMTP(cfg config.MailerConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = sandboxFrom
	}
	return &SMTPMailer{
		sender: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   from,
	}
}

// Send delivers one message. SMTP has no provider message id, so a local id
// is minted for the caller's records.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "mailer: context done")
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.sender.DialAndSend(gm); err != nil {
		return "", eris.Wrapf(ErrNetwork, "smtp send to %s: %v", msg.To, err)
	}
	return uuid.New().String(), nil
}
