// Package scraper enriches leads with public profile data before email
// generation. Provider failures degrade to synthetic data so one bad scrape
// never aborts a campaign run.
package scraper

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantahq/outreach-engine/internal/config"
	"github.com/vantahq/outreach-engine/internal/model"
	"github.com/vantahq/outreach-engine/pkg/brightdata"
)

// ScrapedData is the profile enrichment for a single lead.
type ScrapedData struct {
	Bio         string
	JobTitle    string
	RecentPosts string

	// Mock marks synthetic fallback data.
	Mock bool
	// Insufficient marks a lead that should be dropped by the quality gate.
	Insufficient bool
}

// Scraper fetches profile data for a lead.
type Scraper interface {
	Scrape(ctx context.Context, profileURL string, platform model.Platform) (*ScrapedData, error)
}

// BrightDataScraper scrapes profiles through the Bright Data request API.
type BrightDataScraper struct {
	client  brightdata.Client
	cfg     config.BrightDataConfig
	quality config.QualityConfig
}

var _ Scraper = (*BrightDataScraper)(nil)

func NewBrightData(client brightdata.Client, cfg config.BrightDataConfig, quality config.QualityConfig) *BrightDataScraper {
	return &BrightDataScraper{client: client, cfg: cfg, quality: quality}
}

// Scrape fetches and parses a profile. Degradation rules, in order:
// missing credentials return mock data; a provider rejection returns mock
// data; a transport failure returns mock data marked insufficient so the
// lead is dropped rather than emailed off fabricated context.
func (s *BrightDataScraper) Scrape(ctx context.Context, profileURL string, platform model.Platform) (*ScrapedData, error) {
	if s.cfg.Key == "" {
		zap.L().Warn("bright data credentials missing, using mock scraped data",
			zap.String("profile_url", profileURL))
		d := mockData(platform)
		d.Mock = true
		return d, nil
	}

	payload, err := s.client.Request(ctx, brightdata.ScrapeRequest{
		Zone:   s.cfg.Zone,
		URL:    profileURL,
		Format: "json",
	})
	if err != nil {
		if eris.Is(err, brightdata.ErrProviderRejected) {
			zap.L().Error("scrape rejected by provider, using mock data",
				zap.String("profile_url", profileURL), zap.Error(err))
			d := mockData(platform)
			d.Mock = true
			return d, nil
		}
		zap.L().Error("scrape transport failure, dropping lead",
			zap.String("profile_url", profileURL), zap.Error(err))
		d := mockData(platform)
		d.Mock = true
		d.Insufficient = true
		return d, nil
	}

	parsed := parsePlatformData(payload, platform)
	if !s.sufficient(parsed, platform) {
		zap.L().Warn("lead quality check failed",
			zap.String("profile_url", profileURL), zap.String("platform", string(platform)))
		parsed.Insufficient = true
	}
	return parsed, nil
}

// sufficient reports whether the scraped profile carries enough context to
// personalize an email. LinkedIn leads pass on either a substantive bio or a
// job title; X and Instagram leads need a bio.
func (s *BrightDataScraper) sufficient(d *ScrapedData, platform model.Platform) bool {
	if platform == model.PlatformLinkedIn {
		return trimmedLen(d.Bio) > s.quality.LinkedInBioMin ||
			trimmedLen(d.JobTitle) > s.quality.LinkedInTitleMin
	}
	return trimmedLen(d.Bio) > s.quality.SocialBioMin
}

func trimmedLen(s string) int {
	return len(strings.TrimSpace(s))
}

func parsePlatformData(payload brightdata.ProfilePayload, platform model.Platform) *ScrapedData {
	switch platform {
	case model.PlatformLinkedIn:
		return &ScrapedData{
			Bio:         payload.String("bio", "summary", "about"),
			JobTitle:    payload.String("job_title", "headline", "title"),
			RecentPosts: payload.String("recent_posts", "posts"),
		}
	case model.PlatformX:
		return &ScrapedData{
			Bio:         payload.String("bio", "description"),
			JobTitle:    payload.String("job_title"),
			RecentPosts: payload.String("tweets", "recent_tweets", "posts"),
		}
	case model.PlatformInstagram:
		return &ScrapedData{
			Bio:         payload.String("bio", "biography"),
			RecentPosts: payload.String("recent_posts", "posts"),
		}
	default:
		return &ScrapedData{}
	}
}

func mockData(platform model.Platform) *ScrapedData {
	switch platform {
	case model.PlatformLinkedIn:
		return &ScrapedData{
			Bio:         "Experienced professional passionate about innovation and growth.",
			JobTitle:    "Founder / Operator",
			RecentPosts: "Discussed market trends; Shared a product launch; Commented on industry news.",
		}
	case model.PlatformX:
		return &ScrapedData{
			Bio:         "Building things and tweeting thoughts.",
			JobTitle:    "Builder",
			RecentPosts: "Thread on SaaS metrics; Short post on AI tools; Reply about frameworks.",
		}
	case model.PlatformInstagram:
		return &ScrapedData{
			Bio:         "Visual storyteller and brand enthusiast.",
			RecentPosts: "Posted a reel about workflow; Shared a behind-the-scenes photo; Highlighted a brand collab.",
		}
	default:
		return &ScrapedData{}
	}
}
