package model

import "time"

// CampaignStatus is the campaign lifecycle state. The pipeline owns the
// draft/active/completed transitions around a run; paused is set by the
// campaign CRUD surface.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// CampaignType selects B2B or B2C prompt framing.
type CampaignType string

const (
	CampaignTypeB2B CampaignType = "b2b"
	CampaignTypeB2C CampaignType = "b2c"
)

// EmailTone steers the generator's voice.
type EmailTone string

const (
	ToneProfessional EmailTone = "professional"
	ToneCasual       EmailTone = "casual"
	ToneFriendly     EmailTone = "friendly"
	TonePersuasive   EmailTone = "persuasive"
)

// EmailGoal is the call-to-action the generated email drives toward.
type EmailGoal string

const (
	GoalMeeting       EmailGoal = "meeting"
	GoalDemo          EmailGoal = "demo"
	GoalPartnership   EmailGoal = "partnership"
	GoalSale          EmailGoal = "sale"
	GoalNetworking    EmailGoal = "networking"
	GoalFeedback      EmailGoal = "feedback"
	GoalCollaboration EmailGoal = "collaboration"
)

// CampaignCounter names an aggregate counter column on a campaign. Counters
// are bumped through single atomic store-level increments, never
// read-modify-write in application memory.
type CampaignCounter string

const (
	CounterSent    CampaignCounter = "sent_count"
	CounterOpened  CampaignCounter = "opened_count"
	CounterClicked CampaignCounter = "clicked_count"
	CounterReplied CampaignCounter = "replied_count"
	CounterFailed  CampaignCounter = "failed_count"
)

// Campaign is a named batch of leads sharing tone/goal configuration.
type Campaign struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Type               CampaignType   `json:"campaign_type"`
	Tone               EmailTone      `json:"email_tone"`
	Goal               EmailGoal      `json:"email_goal"`
	CustomInstructions string         `json:"custom_instructions,omitempty"`
	Status             CampaignStatus `json:"status"`

	TotalLeads   int `json:"total_leads"`
	SentCount    int `json:"sent_count"`
	OpenedCount  int `json:"opened_count"`
	ClickedCount int `json:"clicked_count"`
	RepliedCount int `json:"replied_count"`
	FailedCount  int `json:"failed_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
