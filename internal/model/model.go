package model

import (
	"context"
	"time"
)

// NotificationMode selects which pre-curated Upwork feeds a connected user
// receives during a scan cycle.
type NotificationMode string

const (
	ModeBestMatches NotificationMode = "best-matches"
	ModeMostRecent  NotificationMode = "most-recent"
	ModeBoth        NotificationMode = "both"
)

// Valid reports whether m is one of the supported modes.
func (m NotificationMode) Valid() bool {
	return m == ModeBestMatches || m == ModeMostRecent || m == ModeBoth
}

// WantsBestMatches reports whether the mode includes the best-matches feed.
func (m NotificationMode) WantsBestMatches() bool {
	return m == ModeBestMatches || m == ModeBoth || m == ""
}

// WantsMostRecent reports whether the mode includes the most-recent feed.
func (m NotificationMode) WantsMostRecent() bool {
	return m == ModeMostRecent || m == ModeBoth
}

// User is a chat user registered with the bot. Users are created on first
// interaction and soft-deactivated on request, never deleted.
type User struct {
	ID             string // chat identity, opaque to the core
	Active         bool
	Mode           NotificationMode
	Connected      bool   // has a saved Upwork session
	SessionCookies string // opaque credential blob, empty when disconnected
	SessionID      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Filters        []Filter // active filters, populated by ListActiveUsers
}

// Filter is a user-defined keyword/budget rule applied to keyword searches.
// Keyword lists are comma-separated terms with OR semantics. Budget bounds
// are inclusive and independently optional; an inverted range is stored as
// given and simply matches nothing with a budget.
type Filter struct {
	ID              int64
	UserID          string
	Keywords        string
	ExcludeKeywords string
	MinBudget       *int
	MaxBudget       *int
	Category        string
	Active          bool
	CreatedAt       time.Time
}

// Posting is a candidate job extracted from Upwork. Fields beyond ID and
// Title are best-effort; absent values stay zero/nil rather than erroring.
type Posting struct {
	ID          string // source-assigned, unique per posting
	Title       string
	Description string
	URL         string
	Budget      *int // currency-agnostic amount, nil when not listed
	Category    string
	Skills      []string
	PostedAt    time.Time
}

// Job is a posting that survived matching for one user: the user-visible
// history record written alongside the delivery record.
type Job struct {
	ID          int64
	UserID      string
	PostingID   string
	Title       string
	Description string
	URL         string
	Budget      *int
	Category    string
	Skills      string // comma-joined snapshot
	PostedAt    time.Time
	CreatedAt   time.Time
}

// PostingSource fetches candidate postings from Upwork. Implementations
// resolve every transient failure (network, non-2xx, unparseable markup) to
// an empty slice; a returned error is reserved for programmer mistakes and
// the scanner treats it the same as no data.
type PostingSource interface {
	Search(ctx context.Context, keywords, excludeKeywords string) []Posting
	BestMatches(ctx context.Context, userID string) []Posting
	MostRecent(ctx context.Context, userID string) []Posting
}

// Notifier delivers one message per posting to one user. Failures must be
// non-fatal to the caller.
type Notifier interface {
	Send(ctx context.Context, userID string, p Posting) error
}

// RecordStore is the durable state boundary. Every operation is atomic with
// respect to a single logical record; callers never need multi-record
// transactions. Ownership-checked operations (UpdateFilter, DeleteFilter)
// report false both for unknown ids and for ids owned by someone else.
type RecordStore interface {
	FindUser(id string) (*User, error)
	UpsertUser(u *User) error
	ListActiveUsers() ([]User, error)

	ListFilters(userID string) ([]Filter, error)
	CreateFilter(f *Filter) error
	UpdateFilter(f Filter) (bool, error)
	DeleteFilter(id int64, ownerID string) (bool, error)

	// JobExists and RecordJob implement the delivery-record dedup contract:
	// RecordJob writes at most one delivery per (posting, user) and reports
	// whether this call was the one that recorded it.
	JobExists(postingID, userID string) (bool, error)
	RecordJob(job Job) (bool, error)
	RecentJobs(userID string, limit int) ([]Job, error)
}
