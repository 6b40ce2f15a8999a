// Package telegram publishes the daily digest to a Telegram chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deusflow/econbrief/internal/logger"
	"github.com/deusflow/econbrief/internal/news"
	"github.com/deusflow/econbrief/internal/retry"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	// Telegram rejects messages over 4096 characters.
	maxMessageRunes = 4000
)

type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	retry   retry.RetryConfig
}

// New returns a client that retries a failed send up to three times with
// exponential backoff.
func New(token, chatID string) *Client {
	return &Client{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   retry.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true},
	}
}

// WithBaseURL points the client at another Bot API host.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// WithRetry replaces the send retry policy.
func (c *Client) WithRetry(cfg retry.RetryConfig) *Client {
	c.retry = cfg
	return c
}

// SendMessage sends HTML-formatted text with link previews disabled.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	attempt := 0
	err := retry.WithRetry(ctx, c.retry, func() error {
		attempt++
		err := c.sendOnce(ctx, text)
		if err != nil {
			logger.Warn("telegram send failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("can't send message: %w", err)
	}
	logger.Info("message sent to telegram", "attempt", attempt)
	return nil
}

func (c *Client) sendOnce(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}
	return nil
}

// FormatDigest renders the digest followed by up to max linked titles. Titles
// are dropped from the end until the message fits Telegram's limit.
func FormatDigest(agg *news.AggregateResult, max int) string {
	if max > len(agg.News) {
		max = len(agg.News)
	}
	for n := max; n > 0; n-- {
		msg := formatDigest(agg, agg.Summary, n)
		if len([]rune(msg)) <= maxMessageRunes {
			return msg
		}
	}

	// The summary alone is too long. Cut the raw text, never the escaped
	// markup, so no entity or tag is split.
	summary := []rune(agg.Summary)
	msg := formatDigest(agg, agg.Summary, 0)
	for len(summary) > 0 {
		over := len([]rune(msg)) - maxMessageRunes
		if over <= 0 {
			return msg
		}
		summary = summary[:len(summary)-min(over, len(summary))]
		msg = formatDigest(agg, strings.TrimSpace(string(summary))+"…", 0)
	}
	return formatDigest(agg, "", 0)
}

func formatDigest(agg *news.AggregateResult, summary string, n int) string {
	var b strings.Builder

	b.WriteString("📈 <b>오늘의 경제 뉴스</b>\n")
	b.WriteString(agg.LastUpdated.Format("2006-01-02 15:04"))
	b.WriteString("\n━━━━━━━━━━━━━━━━━━━━\n\n")

	if summary != "" {
		b.WriteString(html.EscapeString(summary))
		b.WriteString("\n\n")
	}

	for i, it := range agg.News[:n] {
		fmt.Fprintf(&b, "<b>%d.</b> <a href=\"%s\">%s</a> <i>(%s)</i>\n",
			i+1, html.EscapeString(it.URL), html.EscapeString(it.Title), html.EscapeString(it.Source))
	}
	return b.String()
}
