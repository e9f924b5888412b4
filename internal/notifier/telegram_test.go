package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func testPosting() model.Posting {
	return model.Posting{
		ID:          "job-1",
		Title:       "React Developer Needed",
		Description: "Build a dashboard",
		URL:         "https://www.upwork.com/jobs/job-1",
		Budget:      intPtr(1500),
		Skills:      []string{"React", "Node.js"},
	}
}

func TestSend_Success(t *testing.T) {
	var gotPath string
	var gotReq sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "token123", srv.Client(), discardLogger())
	if err := n.Send(context.Background(), "42", testPosting()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/bottoken123/sendMessage" {
		t.Errorf("path = %s, want /bottoken123/sendMessage", gotPath)
	}
	if gotReq.ChatID != "42" {
		t.Errorf("chat_id = %s, want 42", gotReq.ChatID)
	}
	if gotReq.ParseMode != "HTML" {
		t.Errorf("parse_mode = %s, want HTML", gotReq.ParseMode)
	}
	if !strings.Contains(gotReq.Text, "React Developer Needed") {
		t.Errorf("text missing title: %q", gotReq.Text)
	}
	if !strings.Contains(gotReq.Text, "$1500") {
		t.Errorf("text missing budget: %q", gotReq.Text)
	}
	if gotReq.ReplyMarkup == nil || gotReq.ReplyMarkup.InlineKeyboard[0][0].URL != "https://www.upwork.com/jobs/job-1" {
		t.Errorf("reply markup = %+v, want view-job button", gotReq.ReplyMarkup)
	}
}

func TestSend_APIErrorReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "token123", srv.Client(), discardLogger())
	err := n.Send(context.Background(), "42", testPosting())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("error = %v, want the API description included", err)
	}
}

func TestSend_RateLimitedThenRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"ok":false,"description":"Too Many Requests"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "token123", srv.Client(), discardLogger())
	if err := n.Send(context.Background(), "42", testPosting()); err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestFormatPosting_EscapesHTML(t *testing.T) {
	p := model.Posting{ID: "x", Title: "Fix <script> tags & stuff"}
	text := formatPosting(p)
	if strings.Contains(text, "<script>") {
		t.Errorf("title not escaped: %q", text)
	}
	if !strings.Contains(text, "&lt;script&gt;") {
		t.Errorf("expected escaped title, got %q", text)
	}
}

func TestFormatPosting_TruncatesDescription(t *testing.T) {
	p := testPosting()
	p.Description = strings.Repeat("x", 400)
	text := formatPosting(p)
	if strings.Contains(text, strings.Repeat("x", 301)) {
		t.Error("description should be truncated at 300 chars")
	}
	if !strings.Contains(text, "...") {
		t.Error("truncated description should end with ellipsis")
	}
}
