package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantahq/outreach-engine/internal/generator"
	"github.com/vantahq/outreach-engine/internal/mailer"
	"github.com/vantahq/outreach-engine/internal/pipeline"
	"github.com/vantahq/outreach-engine/internal/scraper"
	"github.com/vantahq/outreach-engine/internal/store"
	"github.com/vantahq/outreach-engine/internal/webhook"
	anthropicpkg "github.com/vantahq/outreach-engine/pkg/anthropic"
	"github.com/vantahq/outreach-engine/pkg/brightdata"
	"github.com/vantahq/outreach-engine/pkg/together"
)

// appEnv holds the initialized store, adapters and pipeline shared by the
// serve and start commands.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Webhooks *webhook.Processor
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store and all adapters. Callers should defer
// env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	bdOpts := []brightdata.Option{}
	if cfg.BrightData.BaseURL != "" {
		bdOpts = append(bdOpts, brightdata.WithBaseURL(cfg.BrightData.BaseURL))
	}
	sc := scraper.NewBrightData(brightdata.NewClient(cfg.BrightData.Key, bdOpts...), cfg.BrightData, cfg.Quality)

	tgOpts := []together.Option{}
	if cfg.Together.BaseURL != "" {
		tgOpts = append(tgOpts, together.WithBaseURL(cfg.Together.BaseURL))
	}
	tgClient := together.NewClient(cfg.Together.Key, tgOpts...)

	// Anthropic is an optional last-chance provider before the template.
	var anthClient anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		anthClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
		zap.L().Info("anthropic fallback provider enabled", zap.String("model", cfg.Anthropic.Model))
	}

	gen, err := generator.New(tgClient, anthClient, cfg.Together, cfg.Anthropic, cfg.Generator)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	m, err := mailer.NewFromConfig(cfg.Mailer)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &appEnv{
		Store:    st,
		Pipeline: pipeline.New(st, sc, gen, m),
		Webhooks: webhook.NewProcessor(st, cfg.Mailer.WebhookSecret),
	}, nil
}
