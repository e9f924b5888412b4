package users

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
	"github.com/warnigo/upwork-job-notifier-bot/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(s, logger)
}

func TestFindOrCreate(t *testing.T) {
	svc := newTestService(t)

	u, err := svc.FindOrCreate("42")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if !u.Active {
		t.Error("new user should be active")
	}
	if u.Mode != model.ModeBestMatches {
		t.Errorf("mode = %s, want best-matches default", u.Mode)
	}

	// Second call returns the stored user, not a fresh one: deactivate and
	// verify the flag survives.
	if _, err := svc.ToggleActive("42"); err != nil {
		t.Fatalf("ToggleActive: %v", err)
	}
	again, err := svc.FindOrCreate("42")
	if err != nil {
		t.Fatalf("second FindOrCreate: %v", err)
	}
	if again.Active {
		t.Error("FindOrCreate should not recreate an existing user")
	}
}

func TestToggleActive(t *testing.T) {
	svc := newTestService(t)

	active, err := svc.ToggleActive("42")
	if err != nil {
		t.Fatalf("ToggleActive: %v", err)
	}
	if active {
		t.Error("first toggle should deactivate a fresh (active) user")
	}

	active, err = svc.ToggleActive("42")
	if err != nil {
		t.Fatalf("second ToggleActive: %v", err)
	}
	if !active {
		t.Error("second toggle should reactivate")
	}
}

func TestAddAndListFilters(t *testing.T) {
	svc := newTestService(t)

	min := 500
	f, err := svc.AddFilter("42", model.Filter{Keywords: "react,node", ExcludeKeywords: "wordpress", MinBudget: &min})
	if err != nil {
		t.Fatalf("AddFilter: %v", err)
	}
	if f.ID == 0 {
		t.Error("filter should get an id")
	}
	if !f.Active {
		t.Error("new filter should be active")
	}

	filters, err := svc.ListFilters("42")
	if err != nil {
		t.Fatalf("ListFilters: %v", err)
	}
	if len(filters) != 1 || filters[0].Keywords != "react,node" {
		t.Errorf("filters = %+v", filters)
	}
}

func TestRemoveFilter_OwnershipIsolation(t *testing.T) {
	svc := newTestService(t)

	f, err := svc.AddFilter("alice", model.Filter{Keywords: "react"})
	if err != nil {
		t.Fatalf("AddFilter: %v", err)
	}

	removed, err := svc.RemoveFilter(f.ID, "bob")
	if err != nil {
		t.Fatalf("RemoveFilter as bob: %v", err)
	}
	if removed {
		t.Error("bob must not remove alice's filter")
	}

	filters, _ := svc.ListFilters("alice")
	if len(filters) != 1 {
		t.Fatal("filter should survive the cross-user request")
	}

	removed, err = svc.RemoveFilter(f.ID, "alice")
	if err != nil {
		t.Fatalf("RemoveFilter as alice: %v", err)
	}
	if !removed {
		t.Error("alice should remove her own filter")
	}
}

func TestSetNotificationMode(t *testing.T) {
	svc := newTestService(t)

	if err := svc.SetNotificationMode("42", model.ModeBoth); err != nil {
		t.Fatalf("SetNotificationMode: %v", err)
	}

	u, _ := svc.FindOrCreate("42")
	if u.Mode != model.ModeBoth {
		t.Errorf("mode = %s, want both", u.Mode)
	}

	if err := svc.SetNotificationMode("42", model.NotificationMode("hourly")); err == nil {
		t.Error("unknown mode should be rejected")
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService(t)

	// Unknown user reads as disconnected.
	_, connected, err := svc.Session("42")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if connected {
		t.Error("unknown user should be disconnected")
	}

	if err := svc.SaveSession("42", "cookie-blob", "sess-1"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	cookies, connected, err := svc.Session("42")
	if err != nil {
		t.Fatalf("Session after save: %v", err)
	}
	if !connected || cookies != "cookie-blob" {
		t.Errorf("session = (%q, %v), want saved cookies and connected", cookies, connected)
	}

	if err := svc.ClearSession("42"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	cookies, connected, _ = svc.Session("42")
	if connected || cookies != "" {
		t.Error("session should be cleared")
	}

	// Clearing an unknown user is a logged no-op.
	if err := svc.ClearSession("nobody"); err != nil {
		t.Fatalf("ClearSession unknown: %v", err)
	}
}
