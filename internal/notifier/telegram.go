package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// Ensure TelegramNotifier implements model.Notifier.
var _ model.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier delivers job alerts as Telegram messages via the Bot API.
type TelegramNotifier struct {
	apiURL     string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTelegramNotifier returns a notifier that posts each posting as one
// message to the user's chat.
func NewTelegramNotifier(apiURL, token string, httpClient *http.Client, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		apiURL:     apiURL,
		token:      token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID      string       `json:"chat_id"`
	Text        string       `json:"text"`
	ParseMode   string       `json:"parse_mode"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one notification message for the posting to the user's chat.
// On HTTP 429 the send is retried once after the advertised delay.
func (t *TelegramNotifier) Send(ctx context.Context, userID string, p model.Posting) error {
	payload := sendMessageRequest{
		ChatID:    userID,
		Text:      formatPosting(p),
		ParseMode: "HTML",
	}
	if p.URL != "" {
		payload.ReplyMarkup = &replyMarkup{
			InlineKeyboard: [][]inlineButton{{{Text: "View Job", URL: p.URL}}},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	resp, err := t.post(ctx, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		resp.Body.Close()
		t.logger.Warn("telegram rate limited, retrying", "retry_after_secs", secs)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(secs) * time.Second):
		}

		resp, err = t.post(ctx, body)
		if err != nil {
			return fmt.Errorf("telegram send (retry): %w", err)
		}
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !apiResp.OK {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, apiResp.Description)
	}

	t.logger.Info("telegram message sent", "user", userID, "posting", p.ID)
	return nil
}

func (t *TelegramNotifier) post(ctx context.Context, body []byte) (*http.Response, error) {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to telegram: %w", err)
	}
	return resp, nil
}

// formatPosting renders the HTML notification body.
func formatPosting(p model.Posting) string {
	var b strings.Builder
	b.WriteString("<b>New Job Found!</b>\n\n")
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(p.Title))

	if p.Description != "" {
		desc := p.Description
		if len(desc) > 300 {
			desc = desc[:300] + "..."
		}
		b.WriteString(html.EscapeString(desc))
		b.WriteString("\n\n")
	}

	if p.Budget != nil {
		fmt.Fprintf(&b, "<b>Budget:</b> $%d\n", *p.Budget)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "<b>Skills:</b> %s\n", html.EscapeString(strings.Join(p.Skills, ", ")))
	}

	return b.String()
}
