package upwork

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/warnigo/upwork-job-notifier-bot/internal/config"
	"github.com/warnigo/upwork-job-notifier-bot/internal/ratelimit"
	"github.com/warnigo/upwork-job-notifier-bot/internal/retry"
)

const listingPage = `<html><body>
<section data-test="JobTile" data-job-id="job-1">
	<a href="/jobs/job-1">
		<h3 data-test="JobTitle">React Developer Needed</h3>
	</a>
	<p data-test="JobDescription">Build a dashboard with React and Node.</p>
	<span data-test="Budget">Fixed price: $1,500</span>
	<span data-test="Skills">React</span>
	<span data-test="Skills">Node.js</span>
	<span data-test="PostedOn">3 hours ago</span>
</section>
<section data-test="JobTile" data-job-id="job-2">
	<a href="https://www.upwork.com/jobs/job-2">
		<h3 data-test="JobTitle">WordPress theme tweaks</h3>
	</a>
	<p data-test="JobDescription">Small wordpress fixes.</p>
	<span data-test="PostedOn">2 days ago</span>
</section>
<section data-test="JobTile">
	<h3 data-test="JobTitle">Tile without any link or id</h3>
</section>
</body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSessions serves a fixed session for every user.
type stubSessions struct {
	cookies   string
	connected bool
}

func (s *stubSessions) Session(string) (string, bool, error) {
	return s.cookies, s.connected, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, sessions SessionProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.UpworkConfig{
		BaseURL:      srv.URL,
		FetchTimeout: 5 * time.Second,
		UserAgent:    "test-agent",
	}
	c := NewClient(cfg, sessions, ratelimit.NewEndpointLimiter(0), srv.Client(), discardLogger())
	// Fail fast in tests; the retry path is covered in the retry package.
	c.retrier = retry.NewFetcher(0, time.Millisecond, discardLogger())
	return c
}

func TestSearch_ExtractsPostings(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(listingPage))
	}, &stubSessions{})

	postings := c.Search(context.Background(), "react", "")
	if gotPath != "/nx/jobs/search/" {
		t.Errorf("path = %s, want /nx/jobs/search/", gotPath)
	}
	if gotQuery != "react" {
		t.Errorf("q = %s, want react", gotQuery)
	}
	if len(postings) != 2 {
		t.Fatalf("postings = %d, want 2 (id-less tile skipped)", len(postings))
	}

	p := postings[0]
	if p.ID != "job-1" || p.Title != "React Developer Needed" {
		t.Errorf("posting = %+v", p)
	}
	if p.Budget == nil || *p.Budget != 1500 {
		t.Errorf("budget = %v, want 1500", p.Budget)
	}
	if len(p.Skills) != 2 || p.Skills[0] != "React" || p.Skills[1] != "Node.js" {
		t.Errorf("skills = %v", p.Skills)
	}
	if p.URL == "" || p.URL[:4] != "http" {
		t.Errorf("url = %q, want absolute", p.URL)
	}
	if time.Since(p.PostedAt) < 2*time.Hour || time.Since(p.PostedAt) > 4*time.Hour {
		t.Errorf("posted_at = %v, want ~3h ago", p.PostedAt)
	}

	if postings[1].Budget != nil {
		t.Errorf("budget-less tile should have nil budget, got %v", *postings[1].Budget)
	}
}

func TestSearch_ExcludeKeywordsDropTiles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage))
	}, &stubSessions{})

	postings := c.Search(context.Background(), "developer", "wordpress")
	if len(postings) != 1 {
		t.Fatalf("postings = %d, want 1", len(postings))
	}
	if postings[0].ID != "job-1" {
		t.Errorf("surviving posting = %s, want job-1", postings[0].ID)
	}
}

func TestSearch_NonSuccessReturnsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, &stubSessions{})

	if postings := c.Search(context.Background(), "react", ""); len(postings) != 0 {
		t.Errorf("postings = %d, want 0 on HTTP 403", len(postings))
	}
}

func TestSearch_NetworkFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, &stubSessions{})
	srv.Close()
	c.baseURL = srv.URL // now unreachable

	if postings := c.Search(context.Background(), "react", ""); len(postings) != 0 {
		t.Errorf("postings = %d, want 0 on connection failure", len(postings))
	}
}

func TestBestMatches_RequiresConnectedSession(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(listingPage))
	}, &stubSessions{connected: false})

	if postings := c.BestMatches(context.Background(), "u1"); len(postings) != 0 {
		t.Errorf("postings = %d, want 0 for disconnected user", len(postings))
	}
	if called {
		t.Error("no request should be made for a disconnected user")
	}
}

func TestBestMatches_SendsSessionCookies(t *testing.T) {
	var gotCookie, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotPath = r.URL.Path
		w.Write([]byte(listingPage))
	}, &stubSessions{cookies: "session=abc", connected: true})

	postings := c.BestMatches(context.Background(), "u1")
	if gotPath != "/nx/find-work/best-matches" {
		t.Errorf("path = %s", gotPath)
	}
	if gotCookie != "session=abc" {
		t.Errorf("cookie = %q, want session=abc", gotCookie)
	}
	if len(postings) != 2 {
		t.Errorf("postings = %d, want 2", len(postings))
	}
}

func TestMostRecent_Path(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(listingPage))
	}, &stubSessions{cookies: "session=abc", connected: true})

	c.MostRecent(context.Background(), "u1")
	if gotPath != "/nx/find-work/most-recent" {
		t.Errorf("path = %s, want /nx/find-work/most-recent", gotPath)
	}
}
