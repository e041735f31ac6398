package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vantahq/outreach-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for
// development and single-instance deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
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
	sent_at            DATETIME,
	opened_at          DATETIME,
	clicked_at         DATETIME,
	replied_at         DATETIME,
	meeting_booked_at  DATETIME,
	error_message      TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_campaign_status ON leads(campaign_id, status);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, campaign_type, email_tone, email_goal, custom_instructions, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Type), string(c.Tone), string(c.Goal), c.CustomInstructions, string(c.Status), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert campaign")
	}
	return &c, nil
}

const campaignColumns = `id, name, campaign_type, email_tone, email_goal, custom_instructions, status,
	total_leads, sent_count, opened_count, clicked_count, replied_count, failed_count, created_at, updated_at`

func (s *SQLiteStore) GetCampaign(ctx context.Context, campaignID string) (*model.Campaign, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, campaignID)
	return scanCampaign(row)
}

func (s *SQLiteStore) SetCampaignStatus(ctx context.Context, campaignID string, status model.CampaignStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), campaignID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set campaign status %s", campaignID)
	}
	return checkRowsAffectedSQL(res, "campaign", campaignID)
}

func (s *SQLiteStore) IncrementCampaignCounter(ctx context.Context, campaignID string, counter model.CampaignCounter) error {
	col, err := counterColumn(counter)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET `+col+` = `+col+` + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), campaignID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment %s for campaign %s", col, campaignID)
	}
	return checkRowsAffectedSQL(res, "campaign", campaignID)
}

func (s *SQLiteStore) CreateLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

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

		_, err := tx.ExecContext(ctx,
			`INSERT INTO leads (id, campaign_id, name, email, profile_url, platform, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.CampaignID, l.Name, l.Email, l.ProfileURL, string(l.Platform), string(l.Status), now, now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert lead %s", l.Email)
		}
		out = append(out, l)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE campaigns SET total_leads = total_leads + ?, updated_at = ? WHERE id = ?`,
		len(leads), now, leads[0].CampaignID,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: bump total_leads")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit leads")
	}
	return out, nil
}

const leadColumns = `id, campaign_id, name, email, profile_url, platform, status, bio, recent_posts,
	job_title, personalized_email, sent_at, opened_at, clicked_at, replied_at, meeting_booked_at,
	error_message, created_at, updated_at`

func (s *SQLiteStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`, leadID)
	return scanLead(row)
}

func (s *SQLiteStore) FindLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE email = ? ORDER BY created_at DESC LIMIT 1`, email)
	return scanLead(row)
}

func (s *SQLiteStore) ListPendingLeads(ctx context.Context, campaignID string) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE campaign_id = ? AND status = ? ORDER BY created_at`,
		campaignID, string(model.LeadStatusPending),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list pending leads %s", campaignID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate pending leads")
}

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus, errorMessage string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), errorMessage, time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead status %s", leadID)
	}
	return checkRowsAffectedSQL(res, "lead", leadID)
}

func (s *SQLiteStore) UpdateLeadFields(ctx context.Context, leadID string, status model.LeadStatus, fields LeadFields) error {
	query := `UPDATE leads SET status = ?, updated_at = ?`
	args := []any{string(status), time.Now().UTC()}

	if fields.Bio != nil {
		query += `, bio = ?`
		args = append(args, *fields.Bio)
	}
	if fields.RecentPosts != nil {
		query += `, recent_posts = ?`
		args = append(args, *fields.RecentPosts)
	}
	if fields.JobTitle != nil {
		query += `, job_title = ?`
		args = append(args, *fields.JobTitle)
	}
	if fields.PersonalizedEmail != nil {
		query += `, personalized_email = ?`
		args = append(args, *fields.PersonalizedEmail)
	}

	query += ` WHERE id = ?`
	args = append(args, leadID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead fields %s", leadID)
	}
	return checkRowsAffectedSQL(res, "lead", leadID)
}

func (s *SQLiteStore) MarkLeadSent(ctx context.Context, leadID string, sentAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, sent_at = ?, error_message = '', updated_at = ? WHERE id = ?`,
		string(model.LeadStatusSent), sentAt.UTC(), time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark lead sent %s", leadID)
	}
	return checkRowsAffectedSQL(res, "lead", leadID)
}

func (s *SQLiteStore) SetLeadTimestamp(ctx context.Context, leadID string, status model.LeadStatus, at time.Time) error {
	col, err := timestampColumn(status)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, `+col+` = ?, updated_at = ? WHERE id = ?`,
		string(status), at.UTC(), time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set lead %s timestamp %s", col, leadID)
	}
	return checkRowsAffectedSQL(res, "lead", leadID)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	var cType, tone, goal, status string
	err := row.Scan(
		&c.ID, &c.Name, &cType, &tone, &goal, &c.CustomInstructions, &status,
		&c.TotalLeads, &c.SentCount, &c.OpenedCount, &c.ClickedCount, &c.RepliedCount, &c.FailedCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "campaign")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan campaign")
	}
	c.Type = model.CampaignType(cType)
	c.Tone = model.EmailTone(tone)
	c.Goal = model.EmailGoal(goal)
	c.Status = model.CampaignStatus(status)
	return &c, nil
}

func scanLead(row rowScanner) (*model.Lead, error) {
	var l model.Lead
	var platform, status string
	var sentAt, openedAt, clickedAt, repliedAt, meetingAt sql.NullTime
	err := row.Scan(
		&l.ID, &l.CampaignID, &l.Name, &l.Email, &l.ProfileURL, &platform, &status,
		&l.Bio, &l.RecentPosts, &l.JobTitle, &l.PersonalizedEmail,
		&sentAt, &openedAt, &clickedAt, &repliedAt, &meetingAt,
		&l.ErrorMessage, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "lead")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan lead")
	}
	l.Platform = model.Platform(platform)
	l.Status = model.LeadStatus(status)
	l.SentAt = nullableTime(sentAt)
	l.OpenedAt = nullableTime(openedAt)
	l.ClickedAt = nullableTime(clickedAt)
	l.RepliedAt = nullableTime(repliedAt)
	l.MeetingBookedAt = nullableTime(meetingAt)
	return &l, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func checkRowsAffectedSQL(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "store: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}
