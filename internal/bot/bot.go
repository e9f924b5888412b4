// Package bot runs the Telegram command surface. It long-polls the Bot API
// for updates and maps slash commands onto the user service, so chat users
// can manage filters and preferences without touching the CLI.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// UserService is the slice of the user service the command handlers need.
type UserService interface {
	FindOrCreate(id string) (*model.User, error)
	ToggleActive(id string) (bool, error)
	AddFilter(userID string, f model.Filter) (*model.Filter, error)
	ListFilters(userID string) ([]model.Filter, error)
	RemoveFilter(filterID int64, userID string) (bool, error)
	RecentJobs(userID string, limit int) ([]model.Job, error)
	SetNotificationMode(userID string, mode model.NotificationMode) error
}

// Bot long-polls Telegram and answers commands.
type Bot struct {
	apiURL      string
	token       string
	httpClient  *http.Client
	users       UserService
	logger      *slog.Logger
	offset      int64
	pollTimeout time.Duration
}

// New creates the command bot.
func New(apiURL, token string, httpClient *http.Client, users UserService, logger *slog.Logger) *Bot {
	return &Bot{
		apiURL:      apiURL,
		token:       token,
		httpClient:  httpClient,
		users:       users,
		logger:      logger,
		pollTimeout: 30 * time.Second,
	}
}

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message"`
}

type message struct {
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text string `json:"text"`
}

type updatesResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description"`
	Result      []update `json:"result"`
}

// Run polls for updates until ctx is cancelled. Poll errors are logged and
// retried after a short pause so a Telegram outage never kills the daemon.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("telegram bot polling started")
	for {
		updates, err := b.getUpdates(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			b.logger.Error("polling telegram failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= b.offset {
				b.offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, strconv.FormatInt(u.Message.Chat.ID, 10), u.Message.Text)
		}
	}
}

func (b *Bot) getUpdates(ctx context.Context) ([]update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(b.offset, 10))
	q.Set("timeout", strconv.Itoa(int(b.pollTimeout.Seconds())))

	reqURL := fmt.Sprintf("%s/bot%s/getUpdates?%s", b.apiURL, b.token, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build getUpdates request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll telegram: %w", err)
	}
	defer resp.Body.Close()

	var parsed updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram getUpdates: %s", parsed.Description)
	}
	return parsed.Result, nil
}

func (b *Bot) handleMessage(ctx context.Context, chatID, text string) {
	reply := b.dispatch(chatID, text)
	if reply == "" {
		return
	}
	if err := b.reply(ctx, chatID, reply); err != nil {
		b.logger.Error("replying failed", "chat", chatID, "error", err)
	}
}

func (b *Bot) reply(ctx context.Context, chatID, text string) error {
	payload := map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", b.apiURL, b.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned %d", resp.StatusCode)
	}
	return nil
}
