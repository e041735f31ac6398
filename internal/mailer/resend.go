package mailer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantahq/outreach-engine/pkg/resend"
)

// ResendMailer delivers through the Resend API.
type ResendMailer struct {
	client resend.Client
	from   string
}

var _ Mailer = (*ResendMailer)(nil)

// NewResend builds a Resend-backed mailer. An empty from address falls back
// to the provider's sandbox identity, which can only reach the account
// owner's inbox.
func NewResend(client resend.Client, from string) *ResendMailer {
	if from == "" {
		zap.L().Warn("sender identity not configured, using sandbox address; delivery is limited to the account owner until a domain is verified",
			zap.String("from", sandboxFrom))
		from = sandboxFrom
	}
	return &ResendMailer{client: client, from: from}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	resp, err := m.client.Send(ctx, resend.Email{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		if eris.Is(err, resend.ErrRejected) {
			return "", eris.Wrapf(ErrProviderRejected, "send to %s: %v", msg.To, err)
		}
		return "", eris.Wrapf(ErrNetwork, "send to %s: %v", msg.To, err)
	}
	zap.L().Info("email delivered", zap.String("to", msg.To), zap.String("message_id", resp.ID))
	return resp.ID, nil
}
