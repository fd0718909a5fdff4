package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"trendboard/internal/domain"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// AlertDispatcher tells subscribed chats when an instrument's assessment
// label changes between analysis passes. The first pass only records labels.
type AlertDispatcher struct {
	sender messageSender

	mu          sync.RWMutex
	subscribers map[int64]struct{}

	labelsMu sync.Mutex
	labels   map[string]string
}

type labelChange struct {
	analysis *domain.Analysis
	previous string
}

func NewAlertDispatcher(sender messageSender) *AlertDispatcher {
	return &AlertDispatcher{
		sender:      sender,
		subscribers: make(map[int64]struct{}),
		labels:      make(map[string]string),
	}
}

func (d *AlertDispatcher) Subscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; exists {
		return false
	}
	d.subscribers[chatID] = struct{}{}
	return true
}

func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subscribers[chatID]; !exists {
		return false
	}
	delete(d.subscribers, chatID)
	return true
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, exists := d.subscribers[chatID]
	return exists
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// Listen matches service.AnalysisListener.
func (d *AlertDispatcher) Listen(ctx context.Context, analyses []*domain.Analysis) {
	if err := d.NotifyAnalyses(ctx, analyses); err != nil {
		log.Warn().Err(err).Msg("alert delivery incomplete")
	}
}

func (d *AlertDispatcher) NotifyAnalyses(ctx context.Context, analyses []*domain.Analysis) error {
	_ = ctx
	if d == nil || len(analyses) == 0 {
		return nil
	}

	changes := d.recordLabels(analyses)
	if len(changes) == 0 || d.sender == nil {
		return nil
	}

	chatIDs := d.snapshotSubscribers()
	if len(chatIDs) == 0 {
		return nil
	}

	msg := formatAlertMessage(changes)
	var failures []string
	for _, chatID := range chatIDs {
		if _, err := d.sender.Send(&tele.Chat{ID: chatID}, msg); err != nil {
			failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed sending %d alerts: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}

func (d *AlertDispatcher) recordLabels(analyses []*domain.Analysis) []labelChange {
	d.labelsMu.Lock()
	defer d.labelsMu.Unlock()

	var changes []labelChange
	for _, a := range analyses {
		if a == nil {
			continue
		}
		prev, seen := d.labels[a.Symbol]
		d.labels[a.Symbol] = a.Assessment.Label
		if seen && prev != a.Assessment.Label {
			changes = append(changes, labelChange{analysis: a, previous: prev})
		}
	}
	return changes
}

func (d *AlertDispatcher) snapshotSubscribers() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chatIDs := make([]int64, 0, len(d.subscribers))
	for chatID := range d.subscribers {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	return chatIDs
}

func parseAlertMode(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return "on", nil
	case "off":
		return "off", nil
	case "status":
		return "status", nil
	default:
		return "", fmt.Errorf("invalid mode")
	}
}

func formatAlertMessage(changes []labelChange) string {
	lines := make([]string, 0, len(changes)+1)
	lines = append(lines, "Trend change alert:")
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf(
			"%s: %s -> %s (%d%%)",
			c.analysis.Symbol, c.previous, c.analysis.Assessment.Label, c.analysis.Assessment.SuccessProbability,
		))
	}
	return strings.Join(lines, "\n")
}
