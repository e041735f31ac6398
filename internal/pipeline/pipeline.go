// Package pipeline runs the per-lead outreach sequence: scrape, quality
// gate, generate, send, then counter updates. Leads are processed strictly
// in order and one lead's failure never aborts the rest of the batch.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantahq/outreach-engine/internal/generator"
	"github.com/vantahq/outreach-engine/internal/mailer"
	"github.com/vantahq/outreach-engine/internal/model"
	"github.com/vantahq/outreach-engine/internal/scraper"
	"github.com/vantahq/outreach-engine/internal/store"
)

// Mode selects how a campaign run executes.
type Mode string

const (
	// ModeSync processes every lead before returning the full report.
	ModeSync Mode = "sync"
	// ModeAsync schedules the run in the background and returns at once.
	ModeAsync Mode = "async"
)

// ParseMode maps a request string to a Mode. Empty defaults to async.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeAsync):
		return ModeAsync, nil
	case string(ModeSync):
		return ModeSync, nil
	default:
		return "", eris.Errorf("pipeline: unknown mode %q", s)
	}
}

// ErrNoPendingLeads is returned when a campaign has nothing to process. The
// campaign is reverted to draft so it can be started again after an upload.
var ErrNoPendingLeads = eris.New("pipeline: no pending leads")

// asyncRunTimeout bounds a detached background run.
const asyncRunTimeout = 30 * time.Minute

// Pipeline orchestrates the outreach sequence for campaigns.
type Pipeline struct {
	store     store.Store
	scraper   scraper.Scraper
	generator generator.Generator
	mailer    mailer.Mailer

	// spawn launches background work. Swapped in tests to run inline.
	spawn func(fn func())
}

// New creates a Pipeline with all dependencies.
func New(st store.Store, sc scraper.Scraper, gen generator.Generator, m mailer.Mailer) *Pipeline {
	return &Pipeline{
		store:     st,
		scraper:   sc,
		generator: gen,
		mailer:    m,
		spawn:     func(fn func()) { go fn() },
	}
}

// Start kicks off a campaign run. The campaign is marked active, pending
// leads are counted, and the batch runs either inline or in the background
// depending on mode.
func (p *Pipeline) Start(ctx context.Context, campaignID string, mode Mode) (*StartReport, error) {
	log := zap.L().With(zap.String("campaign_id", campaignID), zap.String("mode", string(mode)))
	log.Info("pipeline: starting campaign")

	if err := p.store.SetCampaignStatus(ctx, campaignID, model.CampaignStatusActive); err != nil {
		log.Warn("pipeline: failed to mark campaign active", zap.Error(err))
	}

	leads, err := p.store.ListPendingLeads(ctx, campaignID)
	if err != nil {
		// Leave the campaign in draft rather than stranded on active.
		if serr := p.store.SetCampaignStatus(ctx, campaignID, model.CampaignStatusDraft); serr != nil {
			log.Warn("pipeline: failed to revert campaign to draft", zap.Error(serr))
		}
		return nil, eris.Wrap(err, "pipeline: list pending leads")
	}

	if len(leads) == 0 {
		log.Warn("pipeline: no pending leads, reverting campaign to draft")
		if err := p.store.SetCampaignStatus(ctx, campaignID, model.CampaignStatusDraft); err != nil {
			log.Warn("pipeline: failed to revert campaign to draft", zap.Error(err))
		}
		return nil, ErrNoPendingLeads
	}
	log.Info("pipeline: found pending leads", zap.Int("pending", len(leads)))

	if mode == ModeSync {
		results, counts := p.runSequence(ctx, leads)
		if err := p.store.SetCampaignStatus(ctx, campaignID, model.CampaignStatusCompleted); err != nil {
			log.Warn("pipeline: failed to mark campaign completed", zap.Error(err))
		}
		return &StartReport{
			Pending:   len(leads),
			Processed: len(results),
			Counts:    counts,
			Results:   results,
		}, nil
	}

	p.spawn(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("pipeline: background run panicked", zap.Any("panic", r))
			}
		}()
		// Detached from the request context so the run survives the response.
		runCtx, cancel := context.WithTimeout(context.Background(), asyncRunTimeout)
		defer cancel()
		p.runBackground(runCtx, campaignID)
	})

	return &StartReport{Pending: len(leads)}, nil
}

// runBackground re-fetches pending leads and runs the sequence. The re-fetch
// keeps the detached run consistent if leads changed since the response.
func (p *Pipeline) runBackground(ctx context.Context, campaignID string) {
	log := zap.L().With(zap.String("campaign_id", campaignID))

	leads, err := p.store.ListPendingLeads(ctx, campaignID)
	if err != nil {
		log.Error("pipeline: background list pending leads failed", zap.Error(err))
		return
	}
	if len(leads) == 0 {
		log.Warn("pipeline: background run found no pending leads, reverting to draft")
		if err := p.store.SetCampaignStatus(ctx, campaignID, model.CampaignStatusDraft); err != nil {
			log.Warn("pipeline: failed to revert campaign to draft", zap.Error(err))
		}
		return
	}

	p.runSequence(ctx, leads)

	if err := p.store.SetCampaignStatus(ctx, campaignID, model.CampaignStatusCompleted); err != nil {
		log.Warn("pipeline: failed to mark campaign completed", zap.Error(err))
	}
	log.Info("pipeline: background run complete", zap.Int("processed", len(leads)))
}

// runSequence processes leads one at a time. A lead error is recorded and
// the loop continues with the next lead.
func (p *Pipeline) runSequence(ctx context.Context, leads []model.Lead) ([]LeadResult, map[string]int) {
	results := make([]LeadResult, 0, len(leads))
	counts := make(map[string]int)

	for _, lead := range leads {
		res, err := p.ProcessLead(ctx, lead)
		if err != nil {
			zap.L().Error("pipeline: lead failed",
				zap.String("lead_id", lead.ID), zap.Error(err))
			if uerr := p.store.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusFailed, err.Error()); uerr != nil {
				zap.L().Warn("pipeline: failed to record lead failure",
					zap.String("lead_id", lead.ID), zap.Error(uerr))
			}
			res = &LeadResult{ID: lead.ID, FinalStatus: FinalFailed, Error: err.Error()}
		}
		results = append(results, *res)
		counts[res.FinalStatus]++
	}
	return results, counts
}
