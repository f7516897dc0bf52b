package notify

import (
	"context"
	"log"

	"council/internal/models"
)

// Notifier receives outcome events from the voting engine. Delivery is
// fire-and-forget: the engine never blocks on, or rolls back for, a
// notification failure.
type Notifier interface {
	Publish(ctx context.Context, event models.OutcomeEvent) error
}

// LogNotifier writes events to the process log. It is the default when no
// transport is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Publish(_ context.Context, event models.OutcomeEvent) error {
	log.Printf("[Notify] %s tenant=%s proposal=%s status=%s",
		event.Kind, event.TenantID, event.ProposalID, event.Status)
	return nil
}

// Fanout delivers each event to every configured notifier. The first error
// is returned after all deliveries were attempted.
type Fanout struct {
	notifiers []Notifier
}

func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

func (f *Fanout) Publish(ctx context.Context, event models.OutcomeEvent) error {
	var firstErr error
	for _, n := range f.notifiers {
		if err := n.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
