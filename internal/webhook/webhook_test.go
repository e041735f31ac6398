package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vantahq/outreach-engine/internal/model"
	"github.com/vantahq/outreach-engine/internal/store"
)

type mockStore struct {
	mock.Mock
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) CreateCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *mockStore) GetCampaign(ctx context.Context, campaignID string) (*model.Campaign, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *mockStore) SetCampaignStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error {
	return m.Called(ctx, campaignID, status).Error(0)
}

func (m *mockStore) IncrementCampaignCounter(ctx context.Context, campaignID string, counter model.CampaignCounter) error {
	return m.Called(ctx, campaignID, counter).Error(0)
}

func (m *mockStore) CreateLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error) {
	args := m.Called(ctx, leads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

func (m *mockStore) FindLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lead), args.Error(1)
}

func (m *mockStore) ListPendingLeads(ctx context.Context, campaignID string) ([]model.Lead, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockStore) UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus, errorMessage string) error {
	return m.Called(ctx, leadID, status, errorMessage).Error(0)
}

func (m *mockStore) UpdateLeadFields(ctx context.Context, leadID string, status model.LeadStatus, fields store.LeadFields) error {
	return m.Called(ctx, leadID, status, fields).Error(0)
}

func (m *mockStore) MarkLeadSent(ctx context.Context, leadID string, sentAt time.Time) error {
	return m.Called(ctx, leadID, sentAt).Error(0)
}

func (m *mockStore) SetLeadTimestamp(ctx context.Context, leadID string, status model.LeadStatus, at time.Time) error {
	return m.Called(ctx, leadID, status, at).Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func storedLead() *model.Lead {
	return &model.Lead{
		ID:         "lead-1",
		CampaignID: "camp-1",
		Email:      "jane@example.com",
		Status:     model.LeadStatusSent,
	}
}

func TestProcess_Opened(t *testing.T) {
	st := &mockStore{}
	st.On("FindLeadByEmail", mock.Anything, "jane@example.com").Return(storedLead(), nil)
	st.On("SetLeadTimestamp", mock.Anything, "lead-1", model.LeadStatusOpened, mock.Anything).Return(nil)
	st.On("IncrementCampaignCounter", mock.Anything, "camp-1", model.CounterOpened).Return(nil)

	p := NewProcessor(st, "")
	err := p.Process(context.Background(), Event{
		Type: "email.opened",
		Data: EventData{To: "jane@example.com"},
	})

	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestProcess_Clicked(t *testing.T) {
	st := &mockStore{}
	st.On("FindLeadByEmail", mock.Anything, "jane@example.com").Return(storedLead(), nil)
	st.On("SetLeadTimestamp", mock.Anything, "lead-1", model.LeadStatusClicked, mock.Anything).Return(nil)
	st.On("IncrementCampaignCounter", mock.Anything, "camp-1", model.CounterClicked).Return(nil)

	p := NewProcessor(st, "")
	err := p.Process(context.Background(), Event{
		Type: "email.clicked",
		Data: EventData{To: "jane@example.com"},
	})

	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestProcess_Bounced(t *testing.T) {
	st := &mockStore{}
	st.On("FindLeadByEmail", mock.Anything, "jane@example.com").Return(storedLead(), nil)
	st.On("UpdateLeadStatus", mock.Anything, "lead-1", model.LeadStatusFailed, "Email bounced: hard").Return(nil)
	st.On("IncrementCampaignCounter", mock.Anything, "camp-1", model.CounterFailed).Return(nil)

	p := NewProcessor(st, "")
	event := Event{Type: "email.bounced", Data: EventData{To: "jane@example.com"}}
	event.Data.Bounce.Type = "hard"
	err := p.Process(context.Background(), event)

	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestProcess_Complained(t *testing.T) {
	st := &mockStore{}
	st.On("FindLeadByEmail", mock.Anything, "jane@example.com").Return(storedLead(), nil)
	st.On("UpdateLeadStatus", mock.Anything, "lead-1", model.LeadStatusFailed, "Marked as spam by recipient").Return(nil)
	st.On("IncrementCampaignCounter", mock.Anything, "camp-1", model.CounterFailed).Return(nil)

	p := NewProcessor(st, "")
	err := p.Process(context.Background(), Event{
		Type: "email.complained",
		Data: EventData{To: "jane@example.com"},
	})

	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestProcess_Delivered(t *testing.T) {
	st := &mockStore{}
	st.On("FindLeadByEmail", mock.Anything, "jane@example.com").Return(storedLead(), nil)
	st.On("MarkLeadSent", mock.Anything, "lead-1", mock.Anything).Return(nil)

	p := NewProcessor(st, "")
	err := p.Process(context.Background(), Event{
		Type: "email.delivered",
		Data: EventData{To: "jane@example.com"},
	})

	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestProcess_UnknownEventIgnored(t *testing.T) {
	st := &mockStore{}
	st.On("FindLeadByEmail", mock.Anything, "jane@example.com").Return(storedLead(), nil)

	p := NewProcessor(st, "")
	err := p.Process(context.Background(), Event{
		Type: "email.delivery_delayed",
		Data: EventData{To: "jane@example.com"},
	})

	require.NoError(t, err)
	st.AssertNotCalled(t, "IncrementCampaignCounter")
}

func TestProcess_UnknownRecipientIgnored(t *testing.T) {
	st := &mockStore{}
	st.On("FindLeadByEmail", mock.Anything, "stranger@example.com").
		Return(nil, eris.Wrap(store.ErrNotFound, "lead"))

	p := NewProcessor(st, "")
	err := p.Process(context.Background(), Event{
		Type: "email.opened",
		Data: EventData{To: "stranger@example.com"},
	})

	require.NoError(t, err)
}

func TestRecipient_StringOrArray(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(`{"type":"email.opened","data":{"to":"a@x.com"}}`), &e))
	assert.Equal(t, "a@x.com", string(e.Data.To))

	require.NoError(t, json.Unmarshal([]byte(`{"type":"email.opened","data":{"to":["b@x.com","c@x.com"]}}`), &e))
	assert.Equal(t, "b@x.com", string(e.Data.To))
}

func sign(secret, id, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerify_ValidSignature(t *testing.T) {
	p := NewProcessor(&mockStore{}, "whsec_topsecret")
	body := []byte(`{"type":"email.opened"}`)

	sig := sign("topsecret", "msg_1", "1700000000", body)
	assert.NoError(t, p.Verify("msg_1", "1700000000", sig, body))
}

func TestVerify_MultipleSignatures(t *testing.T) {
	p := NewProcessor(&mockStore{}, "whsec_topsecret")
	body := []byte(`{}`)

	good := sign("topsecret", "msg_1", "1700000000", body)
	assert.NoError(t, p.Verify("msg_1", "1700000000", "v1,bogus "+good, body))
}

func TestVerify_BadSignature(t *testing.T) {
	p := NewProcessor(&mockStore{}, "whsec_topsecret")
	body := []byte(`{}`)

	err := p.Verify("msg_1", "1700000000", "v1,AAAA", body)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBadSignature))
}

func TestVerify_MissingHeadersWithSecret(t *testing.T) {
	p := NewProcessor(&mockStore{}, "whsec_topsecret")
	err := p.Verify("", "", "", []byte(`{}`))
	require.Error(t, err)
}

func TestVerify_NoSecretSkips(t *testing.T) {
	p := NewProcessor(&mockStore{}, "")
	assert.NoError(t, p.Verify("", "", "", []byte(`{}`)))
}
