package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Platform identifies the social platform a lead's profile lives on.
type Platform string

const (
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformX         Platform = "X"
	PlatformInstagram Platform = "Instagram"
)

// ParsePlatform validates a platform string against the closed set.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformLinkedIn, PlatformX, PlatformInstagram:
		return Platform(s), nil
	}
	return "", eris.Errorf("model: unknown platform %q", s)
}

// LeadStatus tracks a lead through the outreach pipeline. The pipeline
// advances pending → scraping → scraped → generating → generated → sending
// → sent; failed is reachable from any in-progress state. The post-send
// statuses (opened, clicked, replied, meeting_booked) are written by the
// delivery-event webhook, not by the pipeline.
type LeadStatus string

const (
	LeadStatusPending       LeadStatus = "pending"
	LeadStatusScraping      LeadStatus = "scraping"
	LeadStatusScraped       LeadStatus = "scraped"
	LeadStatusGenerating    LeadStatus = "generating"
	LeadStatusGenerated     LeadStatus = "generated"
	LeadStatusSending       LeadStatus = "sending"
	LeadStatusSent          LeadStatus = "sent"
	LeadStatusOpened        LeadStatus = "opened"
	LeadStatusClicked       LeadStatus = "clicked"
	LeadStatusReplied       LeadStatus = "replied"
	LeadStatusMeetingBooked LeadStatus = "meeting_booked"
	LeadStatusFailed        LeadStatus = "failed"
)

// Terminal reports whether the pipeline is done with a lead. Post-send
// engagement statuses are terminal from the pipeline's point of view.
func (s LeadStatus) Terminal() bool {
	switch s {
	case LeadStatusSent, LeadStatusOpened, LeadStatusClicked,
		LeadStatusReplied, LeadStatusMeetingBooked, LeadStatusFailed:
		return true
	}
	return false
}

// Lead is one contact targeted by a campaign.
type Lead struct {
	ID         string     `json:"id"`
	CampaignID string     `json:"campaign_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	ProfileURL string     `json:"profile_url"`
	Platform   Platform   `json:"platform"`
	Status     LeadStatus `json:"status"`

	// Scraped profile context.
	Bio         string `json:"bio,omitempty"`
	RecentPosts string `json:"recent_posts,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`

	PersonalizedEmail string `json:"personalized_email,omitempty"`

	SentAt          *time.Time `json:"sent_at,omitempty"`
	OpenedAt        *time.Time `json:"opened_at,omitempty"`
	ClickedAt       *time.Time `json:"clicked_at,omitempty"`
	RepliedAt       *time.Time `json:"replied_at,omitempty"`
	MeetingBookedAt *time.Time `json:"meeting_booked_at,omitempty"`

	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FirstName returns the lead's first name for subject lines and greetings.
func (l Lead) FirstName() string {
	for i := 0; i < len(l.Name); i++ {
		if l.Name[i] == ' ' {
			return l.Name[:i]
		}
	}
	return l.Name
}
