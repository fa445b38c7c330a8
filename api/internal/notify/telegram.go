package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-grader/api/internal/evaluation"
	"ai-grader/api/internal/util"
)

// Telegram messages are capped at 4096 characters.
const maxMessageRunes = 4000

const maxAttempts = 3

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a short report of each finished batch to one chat.
type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) BatchCompleted(ctx context.Context, res evaluation.BatchResult) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatBatch(res))
	msg.DisableWebPagePreview = true

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if _, err = t.bot.Send(msg); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelayFromError(err)):
		}
	}
	return fmt.Errorf("telegram send: %w", err)
}

// FormatBatch renders the plain-text batch report.
func FormatBatch(res evaluation.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s finished\n", res.ID)
	fmt.Fprintf(&b, "Assignment: %s\n", res.AssignmentID)
	fmt.Fprintf(&b, "Evaluated: %d", res.TotalStudents)
	if res.Skipped > 0 {
		fmt.Fprintf(&b, ", skipped: %d", res.Skipped)
	}
	if res.Failed > 0 {
		fmt.Fprintf(&b, ", failed: %d", res.Failed)
	}
	b.WriteString("\n")
	s := res.Summary
	fmt.Fprintf(&b, "Average: %.2f%% (high %.2f%%, low %.2f%%)\n", s.AveragePercentage, s.HighestScore, s.LowestScore)

	grades := make([]string, 0, len(s.GradeDistribution))
	for g := range s.GradeDistribution {
		grades = append(grades, g)
	}
	sort.Strings(grades)
	if len(grades) > 0 {
		parts := make([]string, 0, len(grades))
		for _, g := range grades {
			parts = append(parts, fmt.Sprintf("%s=%d", g, s.GradeDistribution[g]))
		}
		fmt.Fprintf(&b, "Grades: %s\n", strings.Join(parts, " "))
	}

	for _, r := range res.Results {
		fmt.Fprintf(&b, "- %s: %.2f%% (%s)\n", r.StudentName, r.Percentage, r.Grade)
	}
	return util.ClampRunes(strings.TrimRight(b.String(), "\n"), maxMessageRunes)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return time.Second
}
