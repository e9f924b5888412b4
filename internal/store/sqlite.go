package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// SQLiteStore is the durable record store: users, their filters, the
// per-user job history, and the delivery records that back deduplication.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	active          INTEGER NOT NULL DEFAULT 1,
	mode            TEXT NOT NULL DEFAULT 'best-matches',
	connected       INTEGER NOT NULL DEFAULT 0,
	session_cookies TEXT NOT NULL DEFAULT '',
	session_id      TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS filters (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id          TEXT NOT NULL,
	keywords         TEXT NOT NULL,
	exclude_keywords TEXT NOT NULL DEFAULT '',
	min_budget       INTEGER,
	max_budget       INTEGER,
	category         TEXT NOT NULL DEFAULT '',
	active           INTEGER NOT NULL DEFAULT 1,
	created_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL,
	posting_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	budget      INTEGER,
	category    TEXT NOT NULL DEFAULT '',
	skills      TEXT NOT NULL DEFAULT '',
	posted_at   DATETIME NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS deliveries (
	posting_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	delivered_at DATETIME NOT NULL,
	PRIMARY KEY (posting_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_filters_user ON filters(user_id);
CREATE INDEX IF NOT EXISTS idx_jobs_user ON jobs(user_id, posted_at);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// FindUser returns the user with the given id, or nil if no such user exists.
func (s *SQLiteStore) FindUser(id string) (*model.User, error) {
	row := s.db.QueryRow(
		`SELECT id, active, mode, connected, session_cookies, session_id, created_at, updated_at
		 FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding user %s: %w", id, err)
	}
	return u, nil
}

// UpsertUser inserts the user or, if the id already exists, overwrites its
// mutable fields. UpdatedAt is bumped on every call.
func (s *SQLiteStore) UpsertUser(u *model.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := s.db.Exec(
		`INSERT INTO users (id, active, mode, connected, session_cookies, session_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			active = excluded.active,
			mode = excluded.mode,
			connected = excluded.connected,
			session_cookies = excluded.session_cookies,
			session_id = excluded.session_id,
			updated_at = excluded.updated_at`,
		u.ID, u.Active, string(u.Mode), u.Connected, u.SessionCookies, u.SessionID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", u.ID, err)
	}
	return nil
}

// ListActiveUsers returns all active users, each populated with their active
// filters.
func (s *SQLiteStore) ListActiveUsers() ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT id, active, mode, connected, session_cookies, session_id, created_at, updated_at
		 FROM users WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("listing active users: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}

	for i := range users {
		filters, err := s.listFilters(users[i].ID, true)
		if err != nil {
			return nil, err
		}
		users[i].Filters = filters
	}

	return users, nil
}

// ListFilters returns all filters owned by the given user, oldest first.
func (s *SQLiteStore) ListFilters(userID string) ([]model.Filter, error) {
	return s.listFilters(userID, false)
}

func (s *SQLiteStore) listFilters(userID string, activeOnly bool) ([]model.Filter, error) {
	q := `SELECT id, user_id, keywords, exclude_keywords, min_budget, max_budget, category, active, created_at
	      FROM filters WHERE user_id = ?`
	if activeOnly {
		q += ` AND active = 1`
	}
	q += ` ORDER BY id`

	rows, err := s.db.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing filters for %s: %w", userID, err)
	}
	defer rows.Close()

	var filters []model.Filter
	for rows.Next() {
		var f model.Filter
		var minBudget, maxBudget sql.NullInt64
		if err := rows.Scan(&f.ID, &f.UserID, &f.Keywords, &f.ExcludeKeywords,
			&minBudget, &maxBudget, &f.Category, &f.Active, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("listing filters for %s: %w", userID, err)
		}
		f.MinBudget = nullableInt(minBudget)
		f.MaxBudget = nullableInt(maxBudget)
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing filters for %s: %w", userID, err)
	}
	return filters, nil
}

// CreateFilter stores a new filter and assigns its id.
func (s *SQLiteStore) CreateFilter(f *model.Filter) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO filters (user_id, keywords, exclude_keywords, min_budget, max_budget, category, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.UserID, f.Keywords, f.ExcludeKeywords, intValue(f.MinBudget), intValue(f.MaxBudget),
		f.Category, f.Active, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating filter for %s: %w", f.UserID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("creating filter for %s: %w", f.UserID, err)
	}
	f.ID = id
	return nil
}

// UpdateFilter overwrites the filter's mutable fields. The update only takes
// effect if the filter belongs to f.UserID; otherwise false is returned, the
// same as for an unknown id.
func (s *SQLiteStore) UpdateFilter(f model.Filter) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE filters SET keywords = ?, exclude_keywords = ?, min_budget = ?, max_budget = ?, category = ?, active = ?
		 WHERE id = ? AND user_id = ?`,
		f.Keywords, f.ExcludeKeywords, intValue(f.MinBudget), intValue(f.MaxBudget),
		f.Category, f.Active, f.ID, f.UserID)
	if err != nil {
		return false, fmt.Errorf("updating filter %d: %w", f.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating filter %d: %w", f.ID, err)
	}
	return n > 0, nil
}

// DeleteFilter removes the filter with the given id if it is owned by
// ownerID. Returns false both for an unknown id and for a filter owned by
// another user, so callers cannot probe other users' filters.
func (s *SQLiteStore) DeleteFilter(id int64, ownerID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM filters WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("deleting filter %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting filter %d: %w", id, err)
	}
	return n > 0, nil
}

// JobExists reports whether a delivery record exists for (postingID, userID).
func (s *SQLiteStore) JobExists(postingID, userID string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		`SELECT 1 FROM deliveries WHERE posting_id = ? AND user_id = ?`,
		postingID, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking delivery for %s/%s: %w", postingID, userID, err)
	}
	return true, nil
}

// RecordJob writes the delivery record and the job history row in one
// transaction. Returns false without writing anything when a delivery for
// (job.PostingID, job.UserID) already exists, which makes the at-most-once
// guarantee hold even when two scans race on the same posting.
func (s *SQLiteStore) RecordJob(job model.Job) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("recording job %s/%s: %w", job.PostingID, job.UserID, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT OR IGNORE INTO deliveries (posting_id, user_id, delivered_at) VALUES (?, ?, ?)`,
		job.PostingID, job.UserID, now)
	if err != nil {
		return false, fmt.Errorf("recording delivery %s/%s: %w", job.PostingID, job.UserID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("recording delivery %s/%s: %w", job.PostingID, job.UserID, err)
	}
	if n == 0 {
		// Already delivered.
		return false, nil
	}

	postedAt := job.PostedAt
	if postedAt.IsZero() {
		postedAt = now
	}
	_, err = tx.Exec(
		`INSERT INTO jobs (user_id, posting_id, title, description, url, budget, category, skills, posted_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.UserID, job.PostingID, job.Title, job.Description, job.URL,
		intValue(job.Budget), job.Category, job.Skills, postedAt, now)
	if err != nil {
		return false, fmt.Errorf("recording job %s/%s: %w", job.PostingID, job.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("recording job %s/%s: %w", job.PostingID, job.UserID, err)
	}
	return true, nil
}

// RecentJobs returns the user's most recent job history entries, newest
// posting first.
func (s *SQLiteStore) RecentJobs(userID string, limit int) ([]model.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT id, user_id, posting_id, title, description, url, budget, category, skills, posted_at, created_at
		 FROM jobs WHERE user_id = ? ORDER BY posted_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent jobs for %s: %w", userID, err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		var budget sql.NullInt64
		if err := rows.Scan(&j.ID, &j.UserID, &j.PostingID, &j.Title, &j.Description, &j.URL,
			&budget, &j.Category, &j.Skills, &j.PostedAt, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("listing recent jobs for %s: %w", userID, err)
		}
		j.Budget = nullableInt(budget)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing recent jobs for %s: %w", userID, err)
	}
	return jobs, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*model.User, error) {
	var u model.User
	var mode string
	if err := r.Scan(&u.ID, &u.Active, &mode, &u.Connected,
		&u.SessionCookies, &u.SessionID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Mode = model.NotificationMode(mode)
	return &u, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func intValue(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
