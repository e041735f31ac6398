// Package store persists leads and campaigns for the outreach pipeline.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vantahq/outreach-engine/internal/model"
)

// ErrNotFound is returned when a campaign or lead does not exist.
var ErrNotFound = errors.New("not found")

// LeadFields is a partial update applied to a lead together with a status
// transition. Nil pointers leave the column untouched.
type LeadFields struct {
	Bio               *string
	RecentPosts       *string
	JobTitle          *string
	PersonalizedEmail *string
}

// Store defines the persistence interface for the outreach pipeline. Every
// write is a single statement, immediately visible to subsequent reads.
type Store interface {
	// Campaigns
	CreateCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error)
	GetCampaign(ctx context.Context, campaignID string) (*model.Campaign, error)
	SetCampaignStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error
	// IncrementCampaignCounter bumps one aggregate counter atomically
	// (UPDATE ... SET c = c + 1), never read-modify-write.
	IncrementCampaignCounter(ctx context.Context, campaignID string, counter model.CampaignCounter) error

	// Leads
	CreateLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error)
	GetLead(ctx context.Context, leadID string) (*model.Lead, error)
	FindLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	ListPendingLeads(ctx context.Context, campaignID string) ([]model.Lead, error)
	UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus, errorMessage string) error
	UpdateLeadFields(ctx context.Context, leadID string, status model.LeadStatus, fields LeadFields) error
	MarkLeadSent(ctx context.Context, leadID string, sentAt time.Time) error
	SetLeadTimestamp(ctx context.Context, leadID string, status model.LeadStatus, at time.Time) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// counterColumn maps a typed counter to its column name. The switch keeps
// counter names out of query interpolation.
func counterColumn(c model.CampaignCounter) (string, error) {
	switch c {
	case model.CounterSent, model.CounterOpened, model.CounterClicked,
		model.CounterReplied, model.CounterFailed:
		return string(c), nil
	default:
		return "", eris.Errorf("store: unknown campaign counter %q", c)
	}
}

// timestampColumn maps an engagement status to the lead column recording when
// it happened.
func timestampColumn(status model.LeadStatus) (string, error) {
	switch status {
	case model.LeadStatusOpened:
		return "opened_at", nil
	case model.LeadStatusClicked:
		return "clicked_at", nil
	case model.LeadStatusReplied:
		return "replied_at", nil
	case model.LeadStatusMeetingBooked:
		return "meeting_booked_at", nil
	default:
		return "", eris.Errorf("store: status %q has no timestamp column", status)
	}
}

// Open constructs a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
