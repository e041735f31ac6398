package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vantahq/outreach-engine/internal/generator"
	"github.com/vantahq/outreach-engine/internal/mailer"
	"github.com/vantahq/outreach-engine/internal/model"
	"github.com/vantahq/outreach-engine/internal/store"
)

// insufficientDataMessage is persisted on leads dropped by the quality gate.
const insufficientDataMessage = "Insufficient data from profile scraping"

// droppedLeadError is reported, not persisted, for dropped leads.
const droppedLeadError = "Lead dropped: missing critical business/company information"

// ProcessLead runs one lead through scrape, gate, generate and send. Every
// stage persists its status before the next stage starts, so a crash leaves
// the lead's last completed stage on record. The returned error is non-nil
// only for hard failures; quality-gate drops are a normal result.
func (p *Pipeline) ProcessLead(ctx context.Context, lead model.Lead) (*LeadResult, error) {
	log := zap.L().With(zap.String("lead_id", lead.ID), zap.String("name", lead.Name))
	log.Info("pipeline: processing lead", zap.String("status", string(lead.Status)))

	// Stage 1: scrape.
	if err := p.store.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusScraping, ""); err != nil {
		return nil, eris.Wrap(err, "pipeline: mark scraping")
	}
	scraped, err := p.scraper.Scrape(ctx, lead.ProfileURL, lead.Platform)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: scrape profile")
	}

	if scraped.Insufficient {
		log.Warn("pipeline: dropping lead, insufficient profile data")
		if err := p.store.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusFailed, insufficientDataMessage); err != nil {
			return nil, eris.Wrap(err, "pipeline: mark dropped")
		}
		return &LeadResult{
			ID:             lead.ID,
			FinalStatus:    FinalDropped,
			Error:          droppedLeadError,
			UsedMockScrape: scraped.Mock,
		}, nil
	}

	if err := p.store.UpdateLeadFields(ctx, lead.ID, model.LeadStatusScraped, store.LeadFields{
		Bio:         &scraped.Bio,
		RecentPosts: &scraped.RecentPosts,
		JobTitle:    &scraped.JobTitle,
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: persist scraped fields")
	}

	// Stage 2: generate.
	if err := p.store.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusGenerating, ""); err != nil {
		return nil, eris.Wrap(err, "pipeline: mark generating")
	}
	campaign, err := p.store.GetCampaign(ctx, lead.CampaignID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load campaign")
	}
	gen, err := p.generator.Generate(ctx, generator.Params{
		Name:               lead.Name,
		Bio:                scraped.Bio,
		RecentPosts:        scraped.RecentPosts,
		JobTitle:           scraped.JobTitle,
		Platform:           lead.Platform,
		Type:               campaign.Type,
		Tone:               campaign.Tone,
		Goal:               campaign.Goal,
		CustomInstructions: campaign.CustomInstructions,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: generate email")
	}
	log.Info("pipeline: email generated",
		zap.Int("chars", len(gen.Body)), zap.Bool("fallback", gen.Fallback))

	if err := p.store.UpdateLeadFields(ctx, lead.ID, model.LeadStatusGenerated, store.LeadFields{
		PersonalizedEmail: &gen.Body,
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: persist generated email")
	}

	// Stage 3: send.
	if err := p.store.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusSending, ""); err != nil {
		return nil, eris.Wrap(err, "pipeline: mark sending")
	}
	msg := compose(lead, gen.Body)
	if _, err := p.mailer.Send(ctx, msg); err != nil {
		log.Error("pipeline: delivery failed", zap.Error(err))
		// Keep the adapter's full error text, not just the failure kind.
		if uerr := p.store.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusFailed, err.Error()); uerr != nil {
			log.Warn("pipeline: failed to record delivery failure", zap.Error(uerr))
		}
		return nil, eris.Wrap(err, "pipeline: send email")
	}

	// Status and counter move only after the provider accepted the message.
	if err := p.store.MarkLeadSent(ctx, lead.ID, time.Now().UTC()); err != nil {
		return nil, eris.Wrap(err, "pipeline: mark sent")
	}
	if err := p.store.IncrementCampaignCounter(ctx, lead.CampaignID, model.CounterSent); err != nil {
		log.Warn("pipeline: failed to increment sent counter", zap.Error(err))
	}
	log.Info("pipeline: lead sent")

	return &LeadResult{
		ID:             lead.ID,
		FinalStatus:    FinalSent,
		EmailLength:    len(gen.Body),
		UsedMockScrape: scraped.Mock,
	}, nil
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// compose builds the outbound message. The subject greets by first name as
// stored; the HTML greeting line normalizes the name's casing.
func compose(lead model.Lead, body string) mailer.Message {
	html := fmt.Sprintf("<p>Hi %s,</p>%s", titleCaser.String(lead.Name), strings.ReplaceAll(body, "\n", "<br>"))
	return mailer.Message{
		To:      lead.Email,
		Subject: fmt.Sprintf("Hey %s!", lead.FirstName()),
		HTML:    html,
	}
}
