package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vantahq/outreach-engine/internal/generator"
	"github.com/vantahq/outreach-engine/internal/mailer"
	"github.com/vantahq/outreach-engine/internal/model"
	"github.com/vantahq/outreach-engine/internal/scraper"
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

type mockScraper struct {
	mock.Mock
}

var _ scraper.Scraper = (*mockScraper)(nil)

func (m *mockScraper) Scrape(ctx context.Context, profileURL string, platform model.Platform) (*scraper.ScrapedData, error) {
	args := m.Called(ctx, profileURL, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scraper.ScrapedData), args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

var _ generator.Generator = (*mockGenerator)(nil)

func (m *mockGenerator) Generate(ctx context.Context, p generator.Params) (*generator.Result, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generator.Result), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

var _ mailer.Mailer = (*mockMailer)(nil)

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}
