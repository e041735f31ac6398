package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantahq/outreach-engine/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedCampaign(t *testing.T, st *SQLiteStore) *model.Campaign {
	t.Helper()
	c, err := st.CreateCampaign(context.Background(), model.Campaign{
		Name: "Q3 Outreach",
		Type: model.CampaignTypeB2B,
		Tone: model.ToneCasual,
		Goal: model.GoalMeeting,
	})
	require.NoError(t, err)
	return c
}

func seedLead(t *testing.T, st *SQLiteStore, campaignID string) model.Lead {
	t.Helper()
	leads, err := st.CreateLeads(context.Background(), []model.Lead{{
		CampaignID: campaignID,
		Name:       "Jane Smith",
		Email:      "jane@example.com",
		ProfileURL: "https://linkedin.com/in/janesmith",
		Platform:   model.PlatformLinkedIn,
	}})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	return leads[0]
}

// --- Campaigns ---

func TestSQLite_Campaign_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created := seedCampaign(t, st)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.CampaignStatusDraft, created.Status)

	got, err := st.GetCampaign(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q3 Outreach", got.Name)
	assert.Equal(t, model.CampaignTypeB2B, got.Type)
	assert.Zero(t, got.SentCount)
}

func TestSQLite_Campaign_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetCampaign(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_Campaign_SetStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)

	require.NoError(t, st.SetCampaignStatus(ctx, c.ID, model.CampaignStatusActive))

	got, err := st.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusActive, got.Status)
}

func TestSQLite_Campaign_SetStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.SetCampaignStatus(context.Background(), "missing", model.CampaignStatusActive)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_Campaign_IncrementCounter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)

	require.NoError(t, st.IncrementCampaignCounter(ctx, c.ID, model.CounterSent))
	require.NoError(t, st.IncrementCampaignCounter(ctx, c.ID, model.CounterSent))
	require.NoError(t, st.IncrementCampaignCounter(ctx, c.ID, model.CounterOpened))

	got, err := st.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SentCount)
	assert.Equal(t, 1, got.OpenedCount)
	assert.Zero(t, got.ClickedCount)
}

func TestSQLite_Campaign_IncrementCounter_Unknown(t *testing.T) {
	st := newTestSQLiteStore(t)
	c := seedCampaign(t, st)

	err := st.IncrementCampaignCounter(context.Background(), c.ID, model.CampaignCounter("bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown campaign counter")
}

// --- Leads ---

func TestSQLite_Leads_CreateAssignsDefaults(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)

	l := seedLead(t, st, c.ID)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, model.LeadStatusPending, l.Status)

	got, err := st.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalLeads)
}

func TestSQLite_Leads_CreateEmptySlice(t *testing.T) {
	st := newTestSQLiteStore(t)

	out, err := st.CreateLeads(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSQLite_Leads_ListPending(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)

	_, err := st.CreateLeads(ctx, []model.Lead{
		{CampaignID: c.ID, Name: "A", Email: "a@x.com", Platform: model.PlatformLinkedIn},
		{CampaignID: c.ID, Name: "B", Email: "b@x.com", Platform: model.PlatformX},
		{CampaignID: c.ID, Name: "C", Email: "c@x.com", Platform: model.PlatformInstagram, Status: model.LeadStatusSent},
	})
	require.NoError(t, err)

	pending, err := st.ListPendingLeads(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a@x.com", pending[0].Email)
	assert.Equal(t, "b@x.com", pending[1].Email)
}

func TestSQLite_Leads_ListPending_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	c := seedCampaign(t, st)

	pending, err := st.ListPendingLeads(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSQLite_Leads_FindByEmail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)
	seedLead(t, st, c.ID)

	got, err := st.FindLeadByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.Name)

	_, err = st.FindLeadByEmail(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_Leads_UpdateStatusWithError(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)
	l := seedLead(t, st, c.ID)

	err := st.UpdateLeadStatus(ctx, l.ID, model.LeadStatusFailed, "Insufficient data from profile scraping")
	require.NoError(t, err)

	got, err := st.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusFailed, got.Status)
	assert.Equal(t, "Insufficient data from profile scraping", got.ErrorMessage)
}

func TestSQLite_Leads_UpdateFields_Partial(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)
	l := seedLead(t, st, c.ID)

	bio := "Growth lead at Acme"
	title := "Head of Growth"
	err := st.UpdateLeadFields(ctx, l.ID, model.LeadStatusScraped, LeadFields{
		Bio:      &bio,
		JobTitle: &title,
	})
	require.NoError(t, err)

	got, err := st.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusScraped, got.Status)
	assert.Equal(t, "Growth lead at Acme", got.Bio)
	assert.Equal(t, "Head of Growth", got.JobTitle)
	assert.Empty(t, got.RecentPosts)
	assert.Empty(t, got.PersonalizedEmail)
}

func TestSQLite_Leads_MarkSent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)
	l := seedLead(t, st, c.ID)

	sentAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, st.MarkLeadSent(ctx, l.ID, sentAt))

	got, err := st.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusSent, got.Status)
	require.NotNil(t, got.SentAt)
	assert.True(t, got.SentAt.Equal(sentAt))
}

func TestSQLite_Leads_SetTimestamp(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedCampaign(t, st)
	l := seedLead(t, st, c.ID)

	at := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.SetLeadTimestamp(ctx, l.ID, model.LeadStatusOpened, at))

	got, err := st.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusOpened, got.Status)
	require.NotNil(t, got.OpenedAt)
	assert.True(t, got.OpenedAt.Equal(at))
	assert.Nil(t, got.ClickedAt)
}

func TestSQLite_Leads_SetTimestamp_NoColumn(t *testing.T) {
	st := newTestSQLiteStore(t)
	c := seedCampaign(t, st)
	l := seedLead(t, st, c.ID)

	err := st.SetLeadTimestamp(context.Background(), l.ID, model.LeadStatusPending, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no timestamp column")
}
