// Package mailer delivers generated emails. Drivers share one Message shape
// so the pipeline stays delivery-agnostic.
package mailer

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/vantahq/outreach-engine/internal/config"
	"github.com/vantahq/outreach-engine/pkg/resend"
)

// sandboxFrom is the provider's test-only identity, usable without a
// verified domain but only for mail to the account owner.
const sandboxFrom = "Vanta <onboarding@resend.dev>"

// Delivery failures form a closed set so the pipeline can branch on kind
// instead of inspecting message strings.
var (
	// ErrProviderRejected marks a delivery the provider refused.
	ErrProviderRejected = eris.New("mailer: provider rejected message")
	// ErrNetwork marks a failure to reach the provider at all.
	ErrNetwork = eris.New("mailer: network failure")
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages. Send returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewFromConfig constructs the configured delivery driver.
func NewFromConfig(cfg config.MailerConfig) (Mailer, error) {
	switch cfg.Driver {
	case "resend", "":
		opts := []resend.Option{}
		if cfg.ResendBaseURL != "" {
			opts = append(opts, resend.WithBaseURL(cfg.ResendBaseURL))
		}
		return NewResend(resend.NewClient(cfg.ResendKey, opts...), cfg.From), nil
	case "smtp":
		return NewSMTP(cfg), nil
	default:
		return nil, eris.Errorf("mailer: unknown driver %q", cfg.Driver)
	}
}
