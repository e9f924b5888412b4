package filter

import (
	"strings"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// Match decides whether a posting satisfies a saved filter. Matching is
// case-insensitive substring search over title+description. A posting passes
// when it contains at least one include keyword, contains no exclude keyword,
// and its budget (when the posting lists one) falls inside the filter's
// bounds. A posting without a budget always passes the budget check; an
// inverted range is applied as given and rejects every budgeted posting.
func Match(f model.Filter, p model.Posting) bool {
	text := strings.ToLower(p.Title + " " + p.Description)

	include := SplitKeywords(f.Keywords)
	if len(include) > 0 {
		matched := false
		for _, kw := range include {
			if strings.Contains(text, kw) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, kw := range SplitKeywords(f.ExcludeKeywords) {
		if strings.Contains(text, kw) {
			return false
		}
	}

	if p.Budget != nil {
		if f.MinBudget != nil && *p.Budget < *f.MinBudget {
			return false
		}
		if f.MaxBudget != nil && *p.Budget > *f.MaxBudget {
			return false
		}
	}

	return true
}

// SplitKeywords splits a comma-separated keyword list into lower-cased,
// trimmed terms, dropping empties.
func SplitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		kw := strings.ToLower(strings.TrimSpace(part))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
