// Package users exposes the user-facing operations behind the chat and web
// surfaces: filter management, activity toggling, notification modes, and
// Upwork session handling. Every surface (Telegram commands, CLI, web app)
// maps onto these methods rather than touching the store directly.
package users

import (
	"fmt"
	"log/slog"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// Service owns user lifecycle and filter CRUD on top of the record store.
type Service struct {
	store  model.RecordStore
	logger *slog.Logger
}

// NewService creates the user service.
func NewService(store model.RecordStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// FindOrCreate returns the user with the given id, creating an active record
// on first interaction.
func (s *Service) FindOrCreate(id string) (*model.User, error) {
	u, err := s.store.FindUser(id)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u = &model.User{ID: id, Active: true, Mode: model.ModeBestMatches}
	if err := s.store.UpsertUser(u); err != nil {
		return nil, fmt.Errorf("creating user %s: %w", id, err)
	}
	s.logger.Info("user created", "user", id)
	return u, nil
}

// ToggleActive flips the user's active flag and returns the new state.
// Deactivation is soft; the user and their filters stay stored.
func (s *Service) ToggleActive(id string) (bool, error) {
	u, err := s.FindOrCreate(id)
	if err != nil {
		return false, err
	}
	u.Active = !u.Active
	if err := s.store.UpsertUser(u); err != nil {
		return false, fmt.Errorf("toggling user %s: %w", id, err)
	}
	s.logger.Info("user toggled", "user", id, "active", u.Active)
	return u.Active, nil
}

// AddFilter stores a new active filter for the user, creating the user on
// demand. Budget bounds are stored exactly as given: an inverted range is
// legal and simply never matches a budgeted posting.
func (s *Service) AddFilter(userID string, f model.Filter) (*model.Filter, error) {
	if _, err := s.FindOrCreate(userID); err != nil {
		return nil, err
	}

	f.UserID = userID
	f.Active = true
	if err := s.store.CreateFilter(&f); err != nil {
		return nil, err
	}
	s.logger.Info("filter added", "user", userID, "filter", f.ID, "keywords", f.Keywords)
	return &f, nil
}

// ListFilters returns all of the user's filters.
func (s *Service) ListFilters(userID string) ([]model.Filter, error) {
	if _, err := s.FindOrCreate(userID); err != nil {
		return nil, err
	}
	return s.store.ListFilters(userID)
}

// RemoveFilter deletes the filter if it belongs to userID. A cross-user
// request reports false, indistinguishable from an unknown id.
func (s *Service) RemoveFilter(filterID int64, userID string) (bool, error) {
	deleted, err := s.store.DeleteFilter(filterID, userID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("filter removed", "user", userID, "filter", filterID)
	}
	return deleted, nil
}

// UpdateFilter overwrites an existing filter's rule. Ownership is taken from
// f.UserID; a mismatch reports false.
func (s *Service) UpdateFilter(f model.Filter) (bool, error) {
	return s.store.UpdateFilter(f)
}

// RecentJobs returns the user's delivered-job history, newest first.
func (s *Service) RecentJobs(userID string, limit int) ([]model.Job, error) {
	return s.store.RecentJobs(userID, limit)
}

// SetNotificationMode updates which find-work feeds a connected user gets.
func (s *Service) SetNotificationMode(userID string, mode model.NotificationMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown notification mode %q", mode)
	}

	u, err := s.FindOrCreate(userID)
	if err != nil {
		return err
	}
	u.Mode = mode
	if err := s.store.UpsertUser(u); err != nil {
		return fmt.Errorf("setting mode for %s: %w", userID, err)
	}
	s.logger.Info("notification mode set", "user", userID, "mode", mode)
	return nil
}

// SaveSession stores the user's Upwork credential blob and marks them
// connected.
func (s *Service) SaveSession(userID, cookies, sessionID string) error {
	u, err := s.FindOrCreate(userID)
	if err != nil {
		return err
	}
	u.SessionCookies = cookies
	u.SessionID = sessionID
	u.Connected = true
	if err := s.store.UpsertUser(u); err != nil {
		return fmt.Errorf("saving session for %s: %w", userID, err)
	}
	s.logger.Info("session saved", "user", userID)
	return nil
}

// ClearSession drops the user's Upwork credentials and marks them
// disconnected. A no-op for unknown users.
func (s *Service) ClearSession(userID string) error {
	u, err := s.store.FindUser(userID)
	if err != nil {
		return err
	}
	if u == nil {
		s.logger.Warn("clear session for unknown user", "user", userID)
		return nil
	}
	u.SessionCookies = ""
	u.SessionID = ""
	u.Connected = false
	if err := s.store.UpsertUser(u); err != nil {
		return fmt.Errorf("clearing session for %s: %w", userID, err)
	}
	s.logger.Info("session cleared", "user", userID)
	return nil
}

// Session resolves the user's saved Upwork session for the scraping client.
// Unknown users read as disconnected.
func (s *Service) Session(userID string) (cookies string, connected bool, err error) {
	u, err := s.store.FindUser(userID)
	if err != nil {
		return "", false, err
	}
	if u == nil {
		return "", false, nil
	}
	return u.SessionCookies, u.Connected, nil
}
