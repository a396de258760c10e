// Package telegram sends run-summary notifications via the Telegram Bot API.
// Messages use MarkdownV2 and delivery is retried with a linear backoff.
package telegram

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/donation-analytics/internal/analytics"
)

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendSummary sends the summary of a finished run
func (c *Client) SendSummary(ctx context.Context, stats *analytics.Stats, outputPath string) error {
	msg := tgbotapi.NewMessage(c.chatID, formatSummary(stats, outputPath))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatSummary renders run statistics as a MarkdownV2 message
func formatSummary(stats *analytics.Stats, outputPath string) string {
	var b strings.Builder

	b.WriteString("📊 *Donation analytics run finished*\n\n")
	fmt.Fprintf(&b, "🆔 Run: %s\n", escapeMarkdownV2(stats.RunID))
	fmt.Fprintf(&b, "📅 Started: %s\n", escapeMarkdownV2(stats.StartedAt.Format("2006-01-02 15:04:05")))
	fmt.Fprintf(&b, "⏱ Duration: %s\n", escapeMarkdownV2(formatDuration(stats.Duration)))
	if outputPath != "" {
		fmt.Fprintf(&b, "📁 Output: %s\n", escapeMarkdownV2(outputPath))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Lines read: *%s*\n", escapeMarkdownV2(humanize.Comma(int64(stats.Lines))))
	fmt.Fprintf(&b, "Repeat\\-donor rows: *%s*\n", escapeMarkdownV2(humanize.Comma(int64(stats.Emitted))))
	fmt.Fprintf(&b, "Donors: %s, groups: %s\n",
		escapeMarkdownV2(humanize.Comma(int64(stats.Donors))),
		escapeMarkdownV2(humanize.Comma(int64(stats.Groups))))

	if total := stats.SkippedTotal(); total > 0 {
		fmt.Fprintf(&b, "Skipped: %s\n", escapeMarkdownV2(humanize.Comma(int64(total))))

		reasons := make([]string, 0, len(stats.Skipped))
		for reason := range stats.Skipped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(&b, "   • %s: %s\n",
				escapeMarkdownV2(reason),
				escapeMarkdownV2(humanize.Comma(int64(stats.Skipped[reason]))))
		}
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
