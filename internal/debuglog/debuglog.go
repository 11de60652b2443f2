package debuglog

import (
	"context"
	"sync"
	"time"

	"github.com/homeshine/portal-front/internal/log"
)

// Entry is one immutable record of the login handshake trail.
type Entry struct {
	Time    string `json:"time"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

// Persistence stores the debug trail, keyed separately from session state.
// Entries are append-only and never pruned automatically.
type Persistence interface {
	AppendEntry(ctx context.Context, entry Entry) error
	ListEntries(ctx context.Context) ([]Entry, error)
	ClearEntries(ctx context.Context) error
}

const appendTimeout = 5 * time.Second

// Sink is a best-effort, non-blocking diagnostic trail. Entries flow through
// a buffered channel to a single writer goroutine, decoupling the handler's
// control flow from the persistence mechanism. A full buffer drops the entry
// and a failed write is absorbed: diagnostics must never change the outcome
// of the flow they observe.
type Sink struct {
	entries chan Entry

	closeOnce sync.Once
	done      chan struct{}
}

// NewSink starts the writer goroutine over the given persistence.
func NewSink(persistence Persistence) *Sink {
	s := &Sink{
		entries: make(chan Entry, 256),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		for entry := range s.entries {
			ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
			if err := persistence.AppendEntry(ctx, entry); err != nil {
				log.LogWarnWithFields("debuglog", "Dropping debug entry, write failed", map[string]any{
					"message": entry.Message,
					"error":   err.Error(),
				})
			}
			cancel()
		}
	}()

	return s
}

// Append records one entry with a freshly assigned timestamp. It never
// blocks and never fails; entries are dropped when the buffer is full or
// the sink is closed.
func (s *Sink) Append(message string, payload any) {
	entry := Entry{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Message: message,
		Payload: payload,
	}

	select {
	case s.entries <- entry:
	default:
		log.LogDebugWithFields("debuglog", "Debug buffer full, entry dropped", map[string]any{
			"message": message,
		})
	}
}

// Close drains buffered entries and stops the writer. Append after Close
// panics; close only at shutdown.
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		close(s.entries)
	})
	<-s.done
}
