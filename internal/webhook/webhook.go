// Package webhook processes delivery-event callbacks from the email
// provider, keeping lead engagement state and campaign counters current.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantahq/outreach-engine/internal/model"
	"github.com/vantahq/outreach-engine/internal/store"
)

// ErrBadSignature is returned when the webhook signature does not match.
var ErrBadSignature = eris.New("webhook: invalid signature")

// Recipient tolerates the provider sending "to" as either a string or an
// array of addresses.
type Recipient string

func (r *Recipient) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Recipient(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return eris.Wrap(err, "webhook: decode recipient")
	}
	if len(list) > 0 {
		*r = Recipient(list[0])
	}
	return nil
}

// Event is a provider delivery event.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData is the event payload subset the processor uses.
type EventData struct {
	To     Recipient `json:"to"`
	Bounce struct {
		Type string `json:"type"`
	} `json:"bounce"`
}

// Processor applies delivery events to lead and campaign state.
type Processor struct {
	store  store.Store
	secret string
}

// NewProcessor creates a Processor. The secret is the provider's signing
// secret, with or without its "whsec_" prefix; empty disables verification.
func NewProcessor(st store.Store, secret string) *Processor {
	return &Processor{store: st, secret: strings.TrimPrefix(secret, "whsec_")}
}

// Verify checks the svix-style signature over "id.timestamp.body". Requests
// without the signature headers pass when no secret is configured; when a
// secret is set the headers are required.
func (p *Processor) Verify(id, timestamp, signature string, body []byte) error {
	if p.secret == "" {
		return nil
	}
	if id == "" || timestamp == "" || signature == "" {
		return eris.Wrap(ErrBadSignature, "missing signature headers")
	}

	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// Header carries space-separated "v1,<base64>" entries.
	for _, sig := range strings.Fields(signature) {
		_, hash, found := strings.Cut(sig, ",")
		if found && hmac.Equal([]byte(hash), []byte(expected)) {
			return nil
		}
	}
	return ErrBadSignature
}

// Process applies one event. Unknown event types are logged and ignored.
func (p *Processor) Process(ctx context.Context, event Event) error {
	email := string(event.Data.To)
	log := zap.L().With(zap.String("event", event.Type), zap.String("email", email))

	if email == "" {
		log.Warn("webhook: event without recipient")
		return nil
	}

	lead, err := p.store.FindLeadByEmail(ctx, email)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			log.Warn("webhook: no lead for recipient")
			return nil
		}
		return eris.Wrap(err, "webhook: find lead")
	}

	now := time.Now().UTC()
	switch event.Type {
	case "email.delivered":
		log.Info("webhook: email delivered")
		return eris.Wrap(p.store.MarkLeadSent(ctx, lead.ID, now), "webhook: mark sent")

	case "email.opened":
		log.Info("webhook: email opened")
		if err := p.store.SetLeadTimestamp(ctx, lead.ID, model.LeadStatusOpened, now); err != nil {
			return eris.Wrap(err, "webhook: mark opened")
		}
		return eris.Wrap(p.store.IncrementCampaignCounter(ctx, lead.CampaignID, model.CounterOpened), "webhook: opened counter")

	case "email.clicked":
		log.Info("webhook: email clicked")
		if err := p.store.SetLeadTimestamp(ctx, lead.ID, model.LeadStatusClicked, now); err != nil {
			return eris.Wrap(err, "webhook: mark clicked")
		}
		return eris.Wrap(p.store.IncrementCampaignCounter(ctx, lead.CampaignID, model.CounterClicked), "webhook: clicked counter")

	case "email.bounced":
		bounceType := event.Data.Bounce.Type
		if bounceType == "" {
			bounceType = "unknown"
		}
		log.Warn("webhook: email bounced", zap.String("bounce_type", bounceType))
		if err := p.store.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusFailed, "Email bounced: "+bounceType); err != nil {
			return eris.Wrap(err, "webhook: mark bounced")
		}
		return eris.Wrap(p.store.IncrementCampaignCounter(ctx, lead.CampaignID, model.CounterFailed), "webhook: failed counter")

	case "email.complained":
		log.Warn("webhook: email marked as spam")
		if err := p.store.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusFailed, "Marked as spam by recipient"); err != nil {
			return eris.Wrap(err, "webhook: mark complained")
		}
		return eris.Wrap(p.store.IncrementCampaignCounter(ctx, lead.CampaignID, model.CounterFailed), "webhook: failed counter")

	default:
		log.Info("webhook: unhandled event type")
		return nil
	}
}
