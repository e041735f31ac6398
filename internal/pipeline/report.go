package pipeline

// Final statuses reported per lead. These are reporting values, wider than
// the persisted lead status: a dropped lead is stored as failed but reported
// distinctly so callers can tell it apart from delivery failures.
const (
	FinalSent    = "sent"
	FinalFailed  = "failed"
	FinalDropped = "dropped_insufficient_data"
)

// LeadResult summarizes the outcome of one lead run.
type LeadResult struct {
	ID          string `json:"id"`
	FinalStatus string `json:"finalStatus"`
	EmailLength int    `json:"emailLength,omitempty"`
	Error       string `json:"error,omitempty"`
	// UsedMockScrape marks synthetic profile data.
	UsedMockScrape bool `json:"usedMockScrape,omitempty"`
}

// StartReport is the outcome of starting a campaign. Processed, Counts and
// Results are only populated for synchronous runs.
type StartReport struct {
	Pending   int            `json:"pending"`
	Processed int            `json:"processed,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
	Results   []LeadResult   `json:"results,omitempty"`
}
