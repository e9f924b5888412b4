package upwork

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/warnigo/upwork-job-notifier-bot/internal/filter"
	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

const maxDescriptionLen = 500

var (
	jobIDFromHref = regexp.MustCompile(`/jobs/([^/?]+)`)
	budgetAmount  = regexp.MustCompile(`[\d,]+`)
	leadingNumber = regexp.MustCompile(`\d+`)
)

// extract pulls postings out of a job-listing page. Tiles missing an id or a
// title are skipped; every other field stays best-effort. When exclude
// keywords are given, tiles containing any of them are dropped here so they
// never reach the match pipeline.
func (c *Client) extract(body []byte, excludeKeywords string) []model.Posting {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("parsing listing page failed", "error", err)
		return nil
	}

	exclude := filter.SplitKeywords(excludeKeywords)
	now := time.Now()

	var postings []model.Posting
	doc.Find(`[data-test="JobTile"]`).Each(func(_ int, tile *goquery.Selection) {
		id := tile.AttrOr("data-job-id", "")
		if id == "" {
			id = jobIDFromLink(tile)
		}
		title := strings.TrimSpace(tile.Find(`[data-test="JobTitle"]`).Text())
		if id == "" || title == "" {
			return
		}

		description := strings.TrimSpace(tile.Find(`[data-test="JobDescription"]`).Text())
		if len(description) > maxDescriptionLen {
			description = description[:maxDescriptionLen]
		}

		if len(exclude) > 0 {
			text := strings.ToLower(title + " " + description)
			for _, kw := range exclude {
				if strings.Contains(text, kw) {
					return
				}
			}
		}

		href := tile.Find("a").First().AttrOr("href", "")
		if href != "" && !strings.HasPrefix(href, "http") {
			href = c.baseURL + href
		}

		var skills []string
		tile.Find(`[data-test="Skills"]`).Each(func(_ int, s *goquery.Selection) {
			if skill := strings.TrimSpace(s.Text()); skill != "" {
				skills = append(skills, skill)
			}
		})

		postings = append(postings, model.Posting{
			ID:          id,
			Title:       title,
			Description: description,
			URL:         href,
			Budget:      parseBudget(tile.Find(`[data-test="Budget"]`).Text()),
			Skills:      skills,
			PostedAt:    parsePostedAt(tile.Find(`[data-test="PostedOn"]`).Text(), now),
		})
	})

	return postings
}

func jobIDFromLink(tile *goquery.Selection) string {
	href := tile.Find("a").First().AttrOr("href", "")
	m := jobIDFromHref.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// parseBudget extracts an integer amount from budget text like "$1,500" or
// "Fixed price: $300". Returns nil when no amount is listed.
func parseBudget(text string) *int {
	m := budgetAmount.FindString(text)
	if m == "" {
		return nil
	}
	amount, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil
	}
	return &amount
}

// parsePostedAt converts relative posted text ("3 hours ago", "2 days ago")
// into a timestamp. Unrecognized text falls back to now — the source does
// not expose absolute dates on listing pages.
func parsePostedAt(text string, now time.Time) time.Time {
	lower := strings.ToLower(text)
	n, _ := strconv.Atoi(leadingNumber.FindString(text))

	switch {
	case strings.Contains(lower, "minute"):
		return now.Add(-time.Duration(n) * time.Minute)
	case strings.Contains(lower, "hour"):
		return now.Add(-time.Duration(n) * time.Hour)
	case strings.Contains(lower, "day"):
		return now.AddDate(0, 0, -n)
	default:
		return now
	}
}
