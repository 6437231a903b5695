package listener

import (
	"context"
	"time"

	"lokapasar/pkg/logger"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one persistence-change notification from the message table.
type Change struct {
	Kind           ChangeKind
	MessageID      string
	ConversationID string
	SenderID       string
}

// Source establishes the notification stream. A setup error is an
// operational precondition failure and is surfaced synchronously; the caller
// treats it as fatal.
type Source interface {
	Changes(ctx context.Context) (<-chan Change, error)
}

type Summary struct {
	Events  int
	Elapsed time.Duration
}

// Listener observes message-table changes for a fixed window. The hosting
// runtime cannot hold an indefinite connection, so each run is bounded and
// an external scheduler re-triggers it. It is a best-effort observation
// path: it never re-invokes the relay, which is triggered directly at the
// message-creation call site.
type Listener struct {
	source Source
}

func New(source Source) *Listener {
	return &Listener{source: source}
}

// Run consumes changes until the window elapses, then reports how many
// events it saw and how long it ran. The window is a hard deadline.
func (l *Listener) Run(ctx context.Context, window time.Duration) (Summary, error) {
	start := time.Now()

	ctx, cancel := context.WithDeadline(ctx, start.Add(window))
	defer cancel()

	changes, err := l.source.Changes(ctx)
	if err != nil {
		return Summary{}, err
	}

	events := 0
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return Summary{Events: events, Elapsed: time.Since(start)}, nil
			}
			events++
			logger.Info("Message table change: kind=%s message=%s conversation=%s sender=%s",
				change.Kind, change.MessageID, change.ConversationID, change.SenderID)
		case <-ctx.Done():
			return Summary{Events: events, Elapsed: time.Since(start)}, nil
		}
	}
}
