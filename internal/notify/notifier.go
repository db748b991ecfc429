// Package notify delivers import notifications to chat channels. Messages go
// to every registered sender (Telegram, Discord) and are filtered by event
// type so operators receive only the alerts they care about.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// Event types emitted by the import service.
const (
	EventImportCompleted = "import_completed"
	EventImportFailed    = "import_failed"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches notifications to one or more Senders. Only events in the
// allowed set are forwarded; an empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that delivers the listed events to senders.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends title and message to every sender if event passes the filter.
// A failing sender does not stop delivery to the others.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("event", event),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// ImportCompleted renders the notification for a successful import.
func ImportCompleted(res domain.ImportResult) (title, message string) {
	title = "Trades imported"
	message = fmt.Sprintf("User %s imported %d trades (%d closed, %d open) from %s [%s].",
		res.UserID, res.Count, res.Closed, res.Open, displayName(res.Filename), res.Format)
	return title, message
}

// ImportFailed renders the notification for a failed import.
func ImportFailed(userID, filename string, err error) (title, message string) {
	title = "Trade import failed"
	message = fmt.Sprintf("User %s could not import %s: %v", userID, displayName(filename), err)
	return title, message
}

func displayName(filename string) string {
	if filename == "" {
		return "an upload"
	}
	return filename
}
