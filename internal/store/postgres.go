package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vantahq/outreach-engine/internal/model"
)

// pgPool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool pgPool
}

// NewPostgres connects to Postgres and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	campaign_type       TEXT NOT NULL DEFAULT 'b2c',
	email_tone          TEXT NOT NULL DEFAULT 'casual',
	email_goal          TEXT NOT NULL DEFAULT 'meeting',
	custom_instructions TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'draft',
	total_leads         INTEGER NOT NULL DEFAULT 0,
	sent_count          INTEGER NOT NULL DEFAULT 0,
	opened_count        INTEGER NOT NULL DEFAULT 0,
	clicked_count       INTEGER NOT NULL DEFAULT 0,
	replied_count       INTEGER NOT NULL DEFAULT 0,
	failed_count        INTEGER NOT NULL DEFAULT 0,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id                 TEXT PRIMARY KEY,
	campaign_id        TEXT NOT NULL REFERENCES campaigns(id),
	name               TEXT NOT NULL,
	email              TEXT NOT NULL,
	profile_url        TEXT NOT NULL,
	platform           TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'pending',
	bio                TEXT NOT NULL DEFAULT '',
	recent_posts       TEXT NOT NULL DEFAULT '',
	job_title          TEXT NOT NULL DEFAULT '',
	personalized_email TEXT NOT NULL DEFAULT '',
	sent_at            TIMESTAMPTZ,
	opened_at          TIMESTAMPTZ,
	clicked_at         TIMESTAMPTZ,
	replied_at         TIMESTAMPTZ,
	meeting_booked_at  TIMESTAMPTZ,
	error_message      TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_campaign_status ON leads(campaign_id, status);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, name, campaign_type, email_tone, email_goal, custom_instructions, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, string(c.Type), string(c.Tone), string(c.Goal), c.CustomInstructions, string(c.Status), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert campaign")
	}
	return &c, nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, campaignID string) (*model.Campaign, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, campaignID)
	return scanPgCampaign(row)
}

func (s *PostgresStore) SetCampaignStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), campaignID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set campaign status %s", campaignID)
	}
	return checkRowsAffectedPg(tag, "campaign", campaignID)
}

func (s *PostgresStore) IncrementCampaignCounter(ctx context.Context, campaignID string, counter model.CampaignCounter) error {
	col, err := counterColumn(counter)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaigns SET `+col+` = `+col+` + 1, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), campaignID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment %s for campaign %s", col, campaignID)
	}
	return checkRowsAffectedPg(tag, "campaign", campaignID)
}

func (s *PostgresStore) CreateLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.Status == "" {
			l.Status = model.LeadStatusPending
		}
		l.CreatedAt = now
		l.UpdatedAt = now

		_, err := tx.Exec(ctx,
			`INSERT INTO leads (id, campaign_id, name, email, profile_url, platform, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.ID, l.CampaignID, l.Name, l.Email, l.ProfileURL, string(l.Platform), string(l.Status), now, now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: insert lead %s", l.Email)
		}
		out = append(out, l)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE campaigns SET total_leads = total_leads + $1, updated_at = $2 WHERE id = $3`,
		len(leads), now, leads[0].CampaignID,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: bump total_leads")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit leads")
	}
	return out, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, leadID)
	return scanPgLead(row)
}

func (s *PostgresStore) FindLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE email = $1 ORDER BY created_at DESC LIMIT 1`, email)
	return scanPgLead(row)
}

func (s *PostgresStore) ListPendingLeads(ctx context.Context, campaignID string) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE campaign_id = $1 AND status = $2 ORDER BY created_at`,
		campaignID, string(model.LeadStatusPending),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list pending leads %s", campaignID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanPgLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate pending leads")
}

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus, errorMessage string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`,
		string(status), errorMessage, time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead status %s", leadID)
	}
	return checkRowsAffectedPg(tag, "lead", leadID)
}

func (s *PostgresStore) UpdateLeadFields(ctx context.Context, leadID string, status model.LeadStatus, fields LeadFields) error {
	query := `UPDATE leads SET status = $1, updated_at = $2`
	args := []any{string(status), time.Now().UTC()}
	n := 3

	set := func(col string, v *string) {
		if v == nil {
			return
		}
		query += `, ` + col + ` = $` + strconv.Itoa(n)
		args = append(args, *v)
		n++
	}
	set("bio", fields.Bio)
	set("recent_posts", fields.RecentPosts)
	set("job_title", fields.JobTitle)
	set("personalized_email", fields.PersonalizedEmail)

	query += ` WHERE id = $` + strconv.Itoa(n)
	args = append(args, leadID)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead fields %s", leadID)
	}
	return checkRowsAffectedPg(tag, "lead", leadID)
}

func (s *PostgresStore) MarkLeadSent(ctx context.Context, leadID string, sentAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, sent_at = $2, error_message = '', updated_at = $3 WHERE id = $4`,
		string(model.LeadStatusSent), sentAt.UTC(), time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark lead sent %s", leadID)
	}
	return checkRowsAffectedPg(tag, "lead", leadID)
}

func (s *PostgresStore) SetLeadTimestamp(ctx context.Context, leadID string, status model.LeadStatus, at time.Time) error {
	col, err := timestampColumn(status)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, `+col+` = $2, updated_at = $3 WHERE id = $4`,
		string(status), at.UTC(), time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set lead %s timestamp %s", col, leadID)
	}
	return checkRowsAffectedPg(tag, "lead", leadID)
}

func scanPgCampaign(row pgx.Row) (*model.Campaign, error) {
	var c model.Campaign
	var cType, tone, goal, status string
	err := row.Scan(
		&c.ID, &c.Name, &cType, &tone, &goal, &c.CustomInstructions, &status,
		&c.TotalLeads, &c.SentCount, &c.OpenedCount, &c.ClickedCount, &c.RepliedCount, &c.FailedCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "campaign")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan campaign")
	}
	c.Type = model.CampaignType(cType)
	c.Tone = model.EmailTone(tone)
	c.Goal = model.EmailGoal(goal)
	c.Status = model.CampaignStatus(status)
	return &c, nil
}

func scanPgLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var platform, status string
	err := row.Scan(
		&l.ID, &l.CampaignID, &l.Name, &l.Email, &l.ProfileURL, &platform, &status,
		&l.Bio, &l.RecentPosts, &l.JobTitle, &l.PersonalizedEmail,
		&l.SentAt, &l.OpenedAt, &l.ClickedAt, &l.RepliedAt, &l.MeetingBookedAt,
		&l.ErrorMessage, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "lead")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan lead")
	}
	l.Platform = model.Platform(platform)
	l.Status = model.LeadStatus(status)
	return &l, nil
}

func checkRowsAffectedPg(tag pgconn.CommandTag, kind, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}
