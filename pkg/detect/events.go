package detect

import (
	"sync"
	"time"

	"github.com/verscout/verscout/pkg/version"
)

// EventType discriminates outcome events.
type EventType string

const (
	// EventVersionDetected fires after every successful detection,
	// carrying the previously cached version so subscribers decide
	// whether the result constitutes news.
	EventVersionDetected EventType = "version-detected"

	// EventDetectionFailed fires when a request exhausts all candidates.
	EventDetectionFailed EventType = "detection-failed"

	// EventBatchCompleted fires once per batch run.
	EventBatchCompleted EventType = "batch-completed"
)

// Event is one outcome handed to external collaborators. Read-only.
type Event struct {
	Type EventType
	At   time.Time

	// Result is set for version-detected and detection-failed events.
	Result *DetectionResult

	// Previous is the previously cached version, set on version-detected
	// events when the cache held an entry for the same fingerprint.
	Previous *version.Version

	// Batch is set for batch-completed events.
	Batch *BatchSummary
}

// BatchSummary aggregates one batch run.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Bus fans outcome events out to subscribers. Dispatch never blocks the
// orchestrator: a subscriber whose buffer is full misses the event. All
// methods are safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given channel buffer size and
// returns its event channel plus a cancel function. Cancel closes the channel;
// callers must not receive after cancelling from another goroutine unless
// they drain until close.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
