// Package scanner owns the discovery pipeline: walk active users, fetch
// candidate postings, match them against saved filters, deduplicate against
// delivery records, and fan surviving postings out to the notifier.
package scanner

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/warnigo/upwork-job-notifier-bot/internal/filter"
	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// Scanner drives scan cycles. A single Scanner is shared by the scheduler
// and any manually forced scans; the running flag makes cycles single-flight
// no matter who triggers them.
type Scanner struct {
	store         model.RecordStore
	source        model.PostingSource
	notifier      model.Notifier
	concurrency   int
	notifyTimeout time.Duration
	running       atomic.Bool
	logger        *slog.Logger
}

// New creates a scanner wired with all its dependencies.
func New(store model.RecordStore, source model.PostingSource, notifier model.Notifier, concurrency int, notifyTimeout time.Duration, logger *slog.Logger) *Scanner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scanner{
		store:         store,
		source:        source,
		notifier:      notifier,
		concurrency:   concurrency,
		notifyTimeout: notifyTimeout,
		logger:        logger,
	}
}

// RunScanCycle executes one discovery pass across all active users. If a
// cycle is already in flight the call returns false immediately without
// touching the posting source; a skipped cycle is lost, never queued.
func (s *Scanner) RunScanCycle(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("scan cycle already running, skipping")
		return false
	}
	defer s.running.Store(false)

	log := s.logger.With("cycle", uuid.NewString()[:8])
	log.Info("scan cycle started")

	users, err := s.store.ListActiveUsers()
	if err != nil {
		log.Error("listing active users failed", "error", err)
		return true
	}

	var delivered atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, u := range users {
		u := u
		g.Go(func() error {
			delivered.Add(int64(s.processUser(ctx, log, u)))
			return nil
		})
	}
	g.Wait()

	log.Info("scan cycle complete", "users", len(users), "delivered", delivered.Load())
	return true
}

// processUser runs the connection feeds and every active filter for one
// user. Failures stay inside this unit of work: the user simply contributes
// zero postings this cycle.
func (s *Scanner) processUser(ctx context.Context, log *slog.Logger, u model.User) (delivered int) {
	// One misbehaving user must not take down the whole cycle.
	defer func() {
		if r := recover(); r != nil {
			log.Error("user processing panicked", "user", u.ID, "panic", r)
		}
	}()

	if ctx.Err() != nil {
		return 0
	}

	if u.Connected {
		delivered += s.processFeeds(ctx, log, u)
	}

	for _, f := range u.Filters {
		if !f.Active {
			continue
		}
		postings := s.source.Search(ctx, f.Keywords, f.ExcludeKeywords)
		delivered += s.deliver(ctx, log, u.ID, postings, &f)
	}

	return delivered
}

// processFeeds fetches the find-work feeds the user's mode asks for and
// pushes the union through the no-filter deliver path. The feeds are curated
// by Upwork itself, so keyword matching is skipped.
func (s *Scanner) processFeeds(ctx context.Context, log *slog.Logger, u model.User) int {
	var postings []model.Posting
	if u.Mode.WantsBestMatches() {
		postings = append(postings, s.source.BestMatches(ctx, u.ID)...)
	}
	if u.Mode.WantsMostRecent() {
		postings = append(postings, s.source.MostRecent(ctx, u.ID)...)
	}
	return s.deliver(ctx, log, u.ID, postings, nil)
}

// deliver runs the match → dedup → record → notify path for a batch of
// candidate postings. The delivery record is written before the notifier is
// invoked: a failed send is logged and never retried, trading guaranteed
// delivery for the at-most-once guarantee.
func (s *Scanner) deliver(ctx context.Context, log *slog.Logger, userID string, postings []model.Posting, f *model.Filter) (delivered int) {
	for _, p := range postings {
		if f != nil && !filter.Match(*f, p) {
			continue
		}

		exists, err := s.store.JobExists(p.ID, userID)
		if err != nil {
			log.Error("dedup check failed", "user", userID, "posting", p.ID, "error", err)
			continue
		}
		if exists {
			continue
		}

		recorded, err := s.store.RecordJob(jobFromPosting(userID, p, f))
		if err != nil {
			log.Error("recording job failed", "user", userID, "posting", p.ID, "error", err)
			continue
		}
		if !recorded {
			// Another unit of work delivered this posting first.
			continue
		}

		notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		err = s.notifier.Send(notifyCtx, userID, p)
		cancel()
		if err != nil {
			log.Error("notification failed", "user", userID, "posting", p.ID, "error", err)
			continue
		}

		log.Info("notification sent", "user", userID, "posting", p.ID)
		delivered++
	}
	return delivered
}

// jobFromPosting snapshots a posting into the user's job history record.
func jobFromPosting(userID string, p model.Posting, f *model.Filter) model.Job {
	job := model.Job{
		UserID:      userID,
		PostingID:   p.ID,
		Title:       p.Title,
		Description: p.Description,
		URL:         p.URL,
		Budget:      p.Budget,
		Category:    p.Category,
		Skills:      strings.Join(p.Skills, ", "),
		PostedAt:    p.PostedAt,
	}
	if f != nil && f.Category != "" {
		job.Category = f.Category
	}
	return job
}
