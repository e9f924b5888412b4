package notifier

import (
	"context"
	"log/slog"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes surviving postings to the given logger instead of a
// chat. Used when no Telegram token is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the posting with user, title, budget, and URL. Returns nil
// (stdout logging does not fail).
func (n *LogNotifier) Send(_ context.Context, userID string, p model.Posting) error {
	args := []any{"user", userID, "posting", p.ID, "title", p.Title, "url", p.URL}
	if p.Budget != nil {
		args = append(args, "budget", *p.Budget)
	}
	n.logger.Info("new job", args...)
	return nil
}
