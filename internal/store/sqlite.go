package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection and SQLite allows one writer.
	db.SetMaxOpenConns(1)
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
CREATE TABLE IF NOT EXISTS companies (
	id                       INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id                 TEXT NOT NULL DEFAULT '',
	company_name             TEXT NOT NULL,
	company_domain           TEXT NOT NULL UNIQUE,
	company_size             TEXT NOT NULL DEFAULT '',
	industry                 TEXT NOT NULL DEFAULT '',
	region                   TEXT NOT NULL DEFAULT '',
	icp_score                INTEGER NOT NULL DEFAULT 0,
	icp_tier                 TEXT NOT NULL DEFAULT '',
	icp_explanation          TEXT NOT NULL DEFAULT '',
	buying_stage             TEXT NOT NULL DEFAULT '',
	buying_stage_explanation TEXT NOT NULL DEFAULT '',
	intent_score             INTEGER NOT NULL DEFAULT 0,
	confidence_score         REAL NOT NULL DEFAULT 0,
	needs_linkedin_search    INTEGER NOT NULL DEFAULT 0,
	created_at               DATETIME NOT NULL,
	updated_at               DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS visited_pages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id INTEGER NOT NULL REFERENCES companies(id),
	page_path  TEXT NOT NULL,
	visited_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id         INTEGER NOT NULL REFERENCES companies(id),
	contact_name       TEXT NOT NULL DEFAULT '',
	contact_title      TEXT NOT NULL DEFAULT '',
	contact_email      TEXT NOT NULL DEFAULT '',
	profile_url        TEXT NOT NULL DEFAULT '',
	persona            TEXT NOT NULL DEFAULT '',
	persona_confidence REAL NOT NULL DEFAULT 0,
	persona_reasoning  TEXT NOT NULL DEFAULT '',
	is_persona_match   INTEGER NOT NULL DEFAULT 0,
	persona_fit_score  REAL,
	verified_role      TEXT NOT NULL DEFAULT '',
	verified_company   TEXT NOT NULL DEFAULT '',
	contact_type       TEXT NOT NULL DEFAULT 'original',
	created_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS generated_emails (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	contact_id INTEGER NOT NULL REFERENCES contacts(id),
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS icp_config (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL,
	industries        TEXT NOT NULL DEFAULT '[]',
	company_size_min  INTEGER NOT NULL DEFAULT 0,
	company_size_max  INTEGER NOT NULL DEFAULT 0,
	regions           TEXT NOT NULL DEFAULT '[]',
	target_job_titles TEXT NOT NULL DEFAULT '[]',
	tech_stack        TEXT NOT NULL DEFAULT '[]',
	pain_points       TEXT NOT NULL DEFAULT '[]',
	is_active         INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_visited_pages_company ON visited_pages(company_id, visited_at);
CREATE INDEX IF NOT EXISTS idx_contacts_company ON contacts(company_id);
CREATE INDEX IF NOT EXISTS idx_generated_emails_contact ON generated_emails(contact_id);
CREATE INDEX IF NOT EXISTS idx_companies_tier ON companies(icp_tier);
CREATE INDEX IF NOT EXISTS idx_companies_stage ON companies(buying_stage);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (event_id, company_name, company_domain, company_size, industry, region,
			icp_score, icp_tier, icp_explanation, buying_stage, buying_stage_explanation,
			intent_score, confidence_score, needs_linkedin_search, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.EventID, c.Name, c.Domain, c.Size, c.Industry, c.Region,
		c.ICPScore, string(c.ICPTier), c.ICPExplanation, string(c.BuyingStage), c.BuyingStageExplanation,
		c.IntentScore, c.ConfidenceScore, c.NeedsDirectorySearch, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return eris.Wrapf(ErrDuplicateDomain, "sqlite: insert company %s", c.Domain)
		}
		return eris.Wrapf(err, "sqlite: insert company %s", c.Domain)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: company id")
	}
	c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
	return nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	c, err := scanCompany(s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies c WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: company %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %d", id)
	}
	return c, nil
}

// GetCompanyByDomain returns nil, nil when no company has the domain.
func (s *SQLiteStore) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	c, err := scanCompany(s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies c WHERE c.company_domain = ?`, domain))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company by domain %s", domain)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateCompanyBehavior(ctx context.Context, id int64, u model.BehaviorUpdate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET buying_stage = ?, buying_stage_explanation = ?, intent_score = ?, updated_at = ? WHERE id = ?`,
		string(u.BuyingStage), u.BuyingStageExplanation, u.IntentScore, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %d", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.CompanySummary, error) {
	tail, args := companyFilterClause(filter, func(int) string { return "?" })
	rows, err := s.db.QueryContext(ctx, `SELECT `+companyColumns+`, `+contactStatsColumns+` FROM companies c`+tail, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.CompanySummary
	for rows.Next() {
		var stats model.ContactStats
		c, err := scanCompany(rows, &stats.Total, &stats.Matched, &stats.Enriched)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, model.CompanySummary{Company: *c, ContactStats: stats})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}

	for i := range out {
		contact, err := scanContact(s.db.QueryRowContext(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE company_id = ? AND contact_type = 'original' ORDER BY id LIMIT 1`,
			out[i].ID))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: primary contact %d", out[i].ID)
		}
		out[i].PrimaryContact = contact
	}
	return out, nil
}

func (s *SQLiteStore) AddPages(ctx context.Context, companyID int64, pages []model.PageVisit) error {
	if len(pages) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin add pages")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, p := range pages {
		at := p.Timestamp
		if at.IsZero() {
			at = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO visited_pages (company_id, page_path, visited_at) VALUES (?, ?, ?)`,
			companyID, p.Path, at.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert page %s", p.Path)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit add pages")
}

func (s *SQLiteStore) ListPages(ctx context.Context, companyID int64) ([]model.VisitedPage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, page_path, visited_at FROM visited_pages WHERE company_id = ? ORDER BY visited_at ASC, id ASC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list pages %d", companyID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.VisitedPage
	for rows.Next() {
		var p model.VisitedPage
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Path, &p.VisitedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan page")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list pages")
}

func (s *SQLiteStore) CreateContact(ctx context.Context, c *model.Contact) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (company_id, contact_name, contact_title, contact_email, profile_url, persona,
			persona_confidence, persona_reasoning, is_persona_match, persona_fit_score, verified_role,
			verified_company, contact_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CompanyID, c.Name, c.Title, c.Email, c.ProfileURL, c.Persona,
		c.PersonaConfidence, c.PersonaReasoning, c.IsPersonaMatch, c.PersonaFitScore, c.VerifiedRole,
		c.VerifiedCompany, string(c.Provenance), now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert contact for company %d", c.CompanyID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: contact id")
	}
	c.ID, c.CreatedAt = id, now
	return nil
}

func (s *SQLiteStore) ListContacts(ctx context.Context, companyID int64) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE company_id = ? ORDER BY created_at ASC, id ASC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list contacts %d", companyID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list contacts")
}

func (s *SQLiteStore) CreateEmail(ctx context.Context, e *model.GeneratedEmail) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generated_emails (contact_id, subject, body, created_at) VALUES (?, ?, ?, ?)`,
		e.ContactID, e.Subject, e.Body, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert email for contact %d", e.ContactID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: email id")
	}
	e.ID, e.CreatedAt = id, now
	return nil
}

func (s *SQLiteStore) ListEmails(ctx context.Context, companyID int64) ([]model.GeneratedEmail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.contact_id, e.subject, e.body, e.created_at, c.contact_name, c.contact_title, c.contact_type
		FROM generated_emails e JOIN contacts c ON c.id = e.contact_id
		WHERE c.company_id = ? ORDER BY e.created_at DESC, e.id DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list emails %d", companyID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.GeneratedEmail
	for rows.Next() {
		var e model.GeneratedEmail
		if err := rows.Scan(&e.ID, &e.ContactID, &e.Subject, &e.Body, &e.CreatedAt, &e.ContactName, &e.Title, &e.Provenance); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan email")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list emails")
}

// SaveProfile inserts p as the only active profile.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p *model.TargetProfile) error {
	lists, err := encodeProfileLists(p)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save profile")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE icp_config SET is_active = 0`); err != nil {
		return eris.Wrap(err, "sqlite: deactivate profiles")
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO icp_config (name, industries, company_size_min, company_size_max, regions,
			target_job_titles, tech_stack, pain_points, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		p.Name, string(lists.Industries), p.CompanySizeMin, p.CompanySizeMax, string(lists.Regions),
		string(lists.Titles), string(lists.TechStack), string(lists.PainPoints), now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert profile")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: profile id")
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit save profile")
	}
	p.ID, p.Active, p.CreatedAt = id, true, now
	return nil
}

// ActiveProfile returns nil, nil when no profile is active.
func (s *SQLiteStore) ActiveProfile(ctx context.Context) (*model.TargetProfile, error) {
	var p model.TargetProfile
	var industries, regions, titles, tech, pains string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, industries, company_size_min, company_size_max, regions, target_job_titles,
			tech_stack, pain_points, is_active, created_at
		FROM icp_config WHERE is_active = 1 ORDER BY id DESC LIMIT 1`,
	).Scan(&p.ID, &p.Name, &industries, &p.CompanySizeMin, &p.CompanySizeMax, &regions, &titles,
		&tech, &pains, &p.Active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: active profile")
	}
	if err := decodeProfileLists(&p, profileLists{
		Industries: []byte(industries),
		Regions:    []byte(regions),
		Titles:     []byte(titles),
		TechStack:  []byte(tech),
		PainPoints: []byte(pains),
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

func checkRowsAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "company %d", id)
	}
	return nil
}
