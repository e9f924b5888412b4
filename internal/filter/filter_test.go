package filter

import (
	"testing"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

func intPtr(v int) *int { return &v }

func posting(title, description string, budget *int) model.Posting {
	return model.Posting{ID: "p1", Title: title, Description: description, Budget: budget}
}

func TestMatch(t *testing.T) {
	reactFilter := model.Filter{
		Keywords:        "react,node",
		ExcludeKeywords: "wordpress",
		MinBudget:       intPtr(500),
		MaxBudget:       intPtr(5000),
	}

	tests := []struct {
		name      string
		filter    model.Filter
		posting   model.Posting
		wantMatch bool
	}{
		{
			name:      "keyword and budget in range",
			filter:    reactFilter,
			posting:   posting("React Developer Needed", "Build a dashboard", intPtr(1000)),
			wantMatch: true,
		},
		{
			name:      "budget above max",
			filter:    reactFilter,
			posting:   posting("React Developer Needed", "Build a dashboard", intPtr(6000)),
			wantMatch: false,
		},
		{
			name:      "budget below min",
			filter:    reactFilter,
			posting:   posting("React Developer Needed", "Build a dashboard", intPtr(100)),
			wantMatch: false,
		},
		{
			name:      "exclude keyword in description wins over include match",
			filter:    reactFilter,
			posting:   posting("React Developer Needed", "Migrate a WordPress site", intPtr(1000)),
			wantMatch: false,
		},
		{
			name:      "absent budget passes budget bounds",
			filter:    reactFilter,
			posting:   posting("Node.js API work", "REST backend", nil),
			wantMatch: true,
		},
		{
			name:      "no include keyword hit",
			filter:    reactFilter,
			posting:   posting("Logo design", "Branding work", intPtr(1000)),
			wantMatch: false,
		},
		{
			name:      "case insensitive include match",
			filter:    model.Filter{Keywords: "REACT"},
			posting:   posting("Senior react engineer", "", nil),
			wantMatch: true,
		},
		{
			name:      "keyword match in description only",
			filter:    model.Filter{Keywords: "golang"},
			posting:   posting("Backend engineer", "Must know Golang and Postgres", nil),
			wantMatch: true,
		},
		{
			name:      "empty include list passes all",
			filter:    model.Filter{ExcludeKeywords: "php"},
			posting:   posting("Anything", "goes", nil),
			wantMatch: true,
		},
		{
			name:      "inverted range rejects any budgeted posting",
			filter:    model.Filter{Keywords: "react", MinBudget: intPtr(5000), MaxBudget: intPtr(500)},
			posting:   posting("React Developer", "", intPtr(2000)),
			wantMatch: false,
		},
		{
			name:      "inverted range still passes budgetless posting",
			filter:    model.Filter{Keywords: "react", MinBudget: intPtr(5000), MaxBudget: intPtr(500)},
			posting:   posting("React Developer", "", nil),
			wantMatch: true,
		},
		{
			name:      "only min budget set",
			filter:    model.Filter{Keywords: "react", MinBudget: intPtr(500)},
			posting:   posting("React Developer", "", intPtr(499)),
			wantMatch: false,
		},
		{
			name:      "inclusive bounds",
			filter:    reactFilter,
			posting:   posting("React Developer", "", intPtr(5000)),
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.filter, tt.posting)
			if got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"react,node", []string{"react", "node"}},
		{" React , Node.js ", []string{"react", "node.js"}},
		{"", nil},
		{" , ,", nil},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		got := SplitKeywords(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("SplitKeywords(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitKeywords(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
