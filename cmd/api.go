package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantahq/outreach-engine/internal/pipeline"
	"github.com/vantahq/outreach-engine/internal/ratelimit"
	"github.com/vantahq/outreach-engine/internal/store"
	"github.com/vantahq/outreach-engine/internal/webhook"
)

// campaignStarter is the slice of the pipeline the API needs.
type campaignStarter interface {
	Start(ctx context.Context, campaignID string, mode pipeline.Mode) (*pipeline.StartReport, error)
}

// api carries the handler dependencies.
type api struct {
	store   store.Store
	starter campaignStarter
	hooks   *webhook.Processor
	limiter *ratelimit.Limiter
}

func newRouter(a *api) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(a.rateLimited).Post("/campaigns/{id}/start", a.handleStartCampaign)
		r.Get("/campaigns/{id}", a.handleGetCampaign)
		r.Post("/webhooks/email", a.handleEmailWebhook)
	})

	return r
}

func (a *api) handleStartCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	mode, err := pipeline.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "mode must be sync or async",
		})
		return
	}

	report, err := a.starter.Start(r.Context(), campaignID, mode)
	if err != nil {
		if eris.Is(err, pipeline.ErrNoPendingLeads) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "No pending leads",
				"pending": 0,
			})
			return
		}
		zap.L().Error("start campaign failed", zap.String("campaign_id", campaignID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to start campaign",
		})
		return
	}

	if mode == pipeline.ModeSync {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"message":   "Workflow complete",
			"pending":   report.Pending,
			"processed": report.Processed,
			"counts":    report.Counts,
			"results":   report.Results,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Workflow started",
		"pending": report.Pending,
	})
}

func (a *api) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	campaign, err := a.store.GetCampaign(r.Context(), campaignID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "campaign not found"})
			return
		}
		zap.L().Error("get campaign failed", zap.String("campaign_id", campaignID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to load campaign"})
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (a *api) handleEmailWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unreadable body"})
		return
	}

	if err := a.hooks.Verify(
		r.Header.Get("svix-id"),
		r.Header.Get("svix-timestamp"),
		r.Header.Get("svix-signature"),
		body,
	); err != nil {
		zap.L().Warn("webhook signature rejected", zap.Error(err))
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid signature"})
		return
	}

	var event webhook.Event
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid event payload"})
		return
	}

	if err := a.hooks.Process(r.Context(), event); err != nil {
		zap.L().Error("webhook processing failed", zap.String("event", event.Type), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Webhook processing failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// rateLimited guards mutating routes by client address and path.
func (a *api) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.limiter != nil && !a.limiter.Allow(clientIP(r)+":"+r.URL.Path) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success": false,
				"error":   "Too many requests. Please try again later.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "unknown"
	}
	return host
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}
