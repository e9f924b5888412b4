package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

const helpText = `<b>Commands</b>
/start - register and activate notifications
/toggle - pause or resume notifications
/filters - list your job filters
/addfilter &lt;spec&gt; - add a filter, e.g.
  /addfilter react, node | exclude: wordpress | min: 500 | max: 5000
/delfilter &lt;id&gt; - remove a filter by id
/mode &lt;best-matches|most-recent|both&gt; - choose feeds for connected accounts
/recent - show your last delivered jobs
/help - this message`

// dispatch routes a slash command to its handler and returns the reply text.
// Non-command messages are ignored.
func (b *Bot) dispatch(chatID, text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	cmd, args, _ := strings.Cut(text, " ")
	// strip the @botname suffix groups append
	cmd, _, _ = strings.Cut(cmd, "@")
	args = strings.TrimSpace(args)

	var reply string
	var err error
	switch cmd {
	case "/start":
		reply, err = b.cmdStart(chatID)
	case "/help":
		reply = helpText
	case "/toggle":
		reply, err = b.cmdToggle(chatID)
	case "/filters":
		reply, err = b.cmdFilters(chatID)
	case "/addfilter":
		reply, err = b.cmdAddFilter(chatID, args)
	case "/delfilter":
		reply, err = b.cmdDelFilter(chatID, args)
	case "/mode":
		reply, err = b.cmdMode(chatID, args)
	case "/recent":
		reply, err = b.cmdRecent(chatID)
	default:
		reply = "Unknown command. Try /help."
	}
	if err != nil {
		b.logger.Error("command failed", "chat", chatID, "command", cmd, "error", err)
		return "Something went wrong, please try again."
	}
	return reply
}

func (b *Bot) cmdStart(chatID string) (string, error) {
	if _, err := b.users.FindOrCreate(chatID); err != nil {
		return "", err
	}
	return "You're registered. Add a filter with /addfilter, or /help for all commands.", nil
}

func (b *Bot) cmdToggle(chatID string) (string, error) {
	active, err := b.users.ToggleActive(chatID)
	if err != nil {
		return "", err
	}
	if active {
		return "Notifications resumed.", nil
	}
	return "Notifications paused. Use /toggle to resume.", nil
}

func (b *Bot) cmdFilters(chatID string) (string, error) {
	filters, err := b.users.ListFilters(chatID)
	if err != nil {
		return "", err
	}
	if len(filters) == 0 {
		return "No filters yet. Add one with /addfilter.", nil
	}

	var sb strings.Builder
	sb.WriteString("<b>Your filters</b>\n")
	for _, f := range filters {
		fmt.Fprintf(&sb, "\n<b>#%d</b> %s", f.ID, html.EscapeString(f.Keywords))
		if f.ExcludeKeywords != "" {
			fmt.Fprintf(&sb, " (excluding %s)", html.EscapeString(f.ExcludeKeywords))
		}
		if f.MinBudget != nil || f.MaxBudget != nil {
			sb.WriteString(" budget ")
			sb.WriteString(formatBudgetRange(f.MinBudget, f.MaxBudget))
		}
		if !f.Active {
			sb.WriteString(" [paused]")
		}
	}
	return sb.String(), nil
}

func (b *Bot) cmdAddFilter(chatID, args string) (string, error) {
	if args == "" {
		return "Usage: /addfilter react, node | exclude: wordpress | min: 500 | max: 5000", nil
	}
	f, err := parseFilterSpec(args)
	if err != nil {
		return "Couldn't parse that: " + html.EscapeString(err.Error()), nil
	}

	created, err := b.users.AddFilter(chatID, f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Filter <b>#%d</b> added for %s.", created.ID, html.EscapeString(created.Keywords)), nil
}

func (b *Bot) cmdDelFilter(chatID, args string) (string, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(args, "#"), 10, 64)
	if err != nil {
		return "Usage: /delfilter <id> (see /filters for ids)", nil
	}

	removed, err := b.users.RemoveFilter(id, chatID)
	if err != nil {
		return "", err
	}
	if !removed {
		return fmt.Sprintf("No filter #%d found.", id), nil
	}
	return fmt.Sprintf("Filter #%d removed.", id), nil
}

func (b *Bot) cmdMode(chatID, args string) (string, error) {
	mode := model.NotificationMode(strings.TrimSpace(args))
	if !mode.Valid() {
		return "Usage: /mode best-matches, /mode most-recent or /mode both", nil
	}
	if err := b.users.SetNotificationMode(chatID, mode); err != nil {
		return "", err
	}
	return fmt.Sprintf("Notification mode set to %s.", mode), nil
}

func (b *Bot) cmdRecent(chatID string) (string, error) {
	jobs, err := b.users.RecentJobs(chatID, 10)
	if err != nil {
		return "", err
	}
	if len(jobs) == 0 {
		return "Nothing delivered yet.", nil
	}

	var sb strings.Builder
	sb.WriteString("<b>Recently delivered</b>\n")
	for _, j := range jobs {
		fmt.Fprintf(&sb, "\n• %s", html.EscapeString(j.Title))
		if j.Budget != nil {
			fmt.Fprintf(&sb, " ($%d)", *j.Budget)
		}
	}
	return sb.String(), nil
}

// parseFilterSpec parses the /addfilter argument: comma-separated keywords,
// then optional pipe-separated clauses "exclude:", "min:", "max:" and
// "category:". Budget bounds are kept verbatim, even when min exceeds max.
func parseFilterSpec(spec string) (model.Filter, error) {
	var f model.Filter
	parts := strings.Split(spec, "|")

	f.Keywords = strings.TrimSpace(parts[0])
	if f.Keywords == "" {
		return f, fmt.Errorf("keywords are required")
	}

	for _, part := range parts[1:] {
		key, value, found := strings.Cut(part, ":")
		if !found {
			return f, fmt.Errorf("expected key: value, got %q", strings.TrimSpace(part))
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "exclude":
			f.ExcludeKeywords = value
		case "category":
			f.Category = value
		case "min", "max":
			n, err := strconv.Atoi(value)
			if err != nil {
				return f, fmt.Errorf("%s budget must be a number, got %q", key, value)
			}
			if key == "min" {
				f.MinBudget = &n
			} else {
				f.MaxBudget = &n
			}
		default:
			return f, fmt.Errorf("unknown clause %q", key)
		}
	}
	return f, nil
}

func formatBudgetRange(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("$%d-$%d", *min, *max)
	case min != nil:
		return fmt.Sprintf("$%d+", *min)
	case max != nil:
		return fmt.Sprintf("up to $%d", *max)
	}
	return ""
}
