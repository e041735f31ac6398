// Package generator writes personalized outreach emails. Providers are tried
// in order and generation always produces a body, degrading to a
// deterministic template when every provider fails.
package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vantahq/outreach-engine/internal/config"
	"github.com/vantahq/outreach-engine/internal/model"
	"github.com/vantahq/outreach-engine/pkg/anthropic"
	"github.com/vantahq/outreach-engine/pkg/together"
)

// Params carries the lead context and campaign framing for one email.
type Params struct {
	Name        string
	Bio         string
	RecentPosts string
	JobTitle    string
	Platform    model.Platform

	Type               model.CampaignType
	Tone               model.EmailTone
	Goal               model.EmailGoal
	CustomInstructions string
}

// Result is a generated email body and how it was produced.
type Result struct {
	Body  string
	Model string
	// Fallback marks the deterministic template, used when no provider
	// returned content.
	Fallback bool
}

// Generator produces a personalized email body for a lead.
type Generator interface {
	Generate(ctx context.Context, p Params) (*Result, error)
}

// LLMGenerator chains Together models, an optional Anthropic model, and the
// deterministic template. It never fails a lead on provider errors.
type LLMGenerator struct {
	together  together.Client
	anthropic anthropic.Client

	togetherCfg  config.TogetherConfig
	anthropicCfg config.AnthropicConfig
	presets      *Presets
	senderName   string
}

var _ Generator = (*LLMGenerator)(nil)

// New builds an LLMGenerator. anthropicClient may be nil to disable the
// last-chance Anthropic attempt.
func New(togetherClient together.Client, anthropicClient anthropic.Client,
	togetherCfg config.TogetherConfig, anthropicCfg config.AnthropicConfig,
	genCfg config.GeneratorConfig) (*LLMGenerator, error) {

	presets, err := LoadPresets(genCfg.PresetsPath)
	if err != nil {
		return nil, err
	}
	return &LLMGenerator{
		together:     togetherClient,
		anthropic:    anthropicClient,
		togetherCfg:  togetherCfg,
		anthropicCfg: anthropicCfg,
		presets:      presets,
		senderName:   genCfg.SenderName,
	}, nil
}

const systemPrompt = "You are a helpful assistant that writes concise, personalized cold emails."

const (
	maxTokens   = 500
	temperature = 0.7
	topP        = 0.9
)

func (g *LLMGenerator) Generate(ctx context.Context, p Params) (*Result, error) {
	if g.togetherCfg.Key == "" {
		zap.L().Warn("llm credentials missing, using fallback template", zap.String("name", p.Name))
		return g.fallback(p), nil
	}

	prompt := g.buildPrompt(p)
	models := append([]string{g.togetherCfg.PrimaryModel}, g.togetherCfg.FallbackModels...)

	mt := maxTokens
	temp := temperature
	tp := topP
	for _, m := range models {
		resp, err := g.together.ChatCompletion(ctx, together.ChatCompletionRequest{
			Model: m,
			Messages: []together.Message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
			MaxTokens:   &mt,
			Temperature: &temp,
			TopP:        &tp,
		})
		if err != nil {
			zap.L().Warn("model attempt failed", zap.String("model", m), zap.Error(err))
			continue
		}
		if body := strings.TrimSpace(resp.Content()); body != "" {
			zap.L().Info("email generated",
				zap.String("model", m), zap.Int("chars", len(body)))
			return &Result{Body: body, Model: m}, nil
		}
		zap.L().Warn("model returned empty content", zap.String("model", m))
	}

	if g.anthropic != nil && g.anthropicCfg.Key != "" {
		temp := temperature
		resp, err := g.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       g.anthropicCfg.Model,
			MaxTokens:   maxTokens,
			System:      systemPrompt,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
		if err != nil {
			zap.L().Warn("anthropic attempt failed", zap.Error(err))
		} else if body := strings.TrimSpace(resp.Text); body != "" {
			zap.L().Info("email generated",
				zap.String("model", g.anthropicCfg.Model), zap.Int("chars", len(body)))
			return &Result{Body: body, Model: g.anthropicCfg.Model}, nil
		}
	}

	zap.L().Warn("all model attempts failed, using fallback template", zap.String("name", p.Name))
	return g.fallback(p), nil
}

func (g *LLMGenerator) buildPrompt(p Params) string {
	audience := "sales"
	if p.Type == model.CampaignTypeB2B {
		audience = "B2B sales"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert cold email writer. Write a hyper-personalized 2-paragraph %s email to %s.\n\n", audience, p.Name)
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Platform: %s\n", p.Platform)
	fmt.Fprintf(&b, "- Job Title: %s\n", orDefault(p.JobTitle, "Not specified"))
	fmt.Fprintf(&b, "- Bio: %s\n", orDefault(p.Bio, "Not available"))
	fmt.Fprintf(&b, "- Recent Activity: %s\n\n", orDefault(p.RecentPosts, "Not available"))
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Tone: %s\n", g.presets.Tone(string(p.Tone)))
	b.WriteString("- Length: 2 paragraphs maximum\n")
	b.WriteString("- Reference specific details from their bio or recent posts\n")
	fmt.Fprintf(&b, "- %s\n", g.presets.Goal(string(p.Goal)))
	b.WriteString("- Include a clear call-to-action\n")
	b.WriteString("- Make it feel personal, not templated\n")
	b.WriteString("- No subject line, just the email body\n")
	if p.CustomInstructions != "" {
		fmt.Fprintf(&b, "- %s\n", p.CustomInstructions)
	}
	b.WriteString("\nWrite the email now:")
	return b.String()
}

// fallback renders the deterministic template. Used when credentials are
// missing or every provider attempt failed.
func (g *LLMGenerator) fallback(p Params) *Result {
	noticed := "your profile"
	if p.JobTitle != "" {
		noticed = "your role as " + p.JobTitle
	}

	bioLine := ""
	if p.Bio != "" {
		excerpt := p.Bio
		if len(excerpt) > 60 {
			excerpt = excerpt[:60]
		}
		bioLine = fmt.Sprintf(" Loved the bit in your bio about %q.", excerpt)
	}

	body := fmt.Sprintf(
		"Hey %s,\n\nI was checking out your %s presence and noticed %s.\nWe help founders and professionals streamline outreach with AI-personalized messages.%s\n\nWould it be a bad idea to send you a quick 2 minute overview?\n\nCheers,\n%s",
		p.Name, p.Platform, noticed, bioLine, g.senderName,
	)
	return &Result{Body: body, Fallback: true}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
