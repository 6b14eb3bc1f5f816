package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	logx "github.com/palco-live/cadastro/pkg/logger"
)

// Outcome labels for the per-turn event. Free-form strings are allowed; these
// cover the standard paths.
const (
	OutcomeReplied     = "replied"
	OutcomeCompleted   = "completed"
	OutcomeAbandoned   = "abandoned"
	OutcomeUnavailable = "extraction_unavailable"
	OutcomeStoreError  = "state_store_error"
)

// Event is one per-turn observability record. It carries routing metadata
// only, never message text.
type Event struct {
	ID           string
	UserIdentity string
	TenantID     string
	Strategy     string
	MachineState string
	Provider     string
	Outcome      string
	Attempt      int
	Latency      time.Duration
	At           time.Time
}

// Sink receives events off the reply path. Emit must never block and its
// failures must never surface to the user turn.
type Sink interface {
	Emit(e Event)
	Close()
}

// LogSink drains events into the structured log from a single goroutine.
// A full buffer drops the event instead of delaying a reply.
type LogSink struct {
	ch   chan Event
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewLogSink starts the drain goroutine with the given buffer size.
func NewLogSink(buffer int) *LogSink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &LogSink{
		ch:   make(chan Event, buffer),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.drain()
	return s
}

// Emit queues one event. Safe to call after Close; the event is then dropped.
func (s *LogSink) Emit(e Event) {
	e = normalize(e)
	select {
	case <-s.quit:
	case s.ch <- e:
	default:
		logx.Warn().Str("trace_id", e.ID).Msg("trace buffer full, event dropped")
	}
}

// Close flushes buffered events and stops the drain goroutine. Idempotent.
func (s *LogSink) Close() {
	s.once.Do(func() {
		close(s.quit)
		<-s.done
	})
}

func (s *LogSink) drain() {
	defer close(s.done)
	for {
		select {
		case e := <-s.ch:
			write(e)
		case <-s.quit:
			for {
				select {
				case e := <-s.ch:
					write(e)
				default:
					return
				}
			}
		}
	}
}

func normalize(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return e
}

func write(e Event) {
	logx.Info().
		Str("trace_id", e.ID).
		Str("user_identity", e.UserIdentity).
		Str("tenant_id", e.TenantID).
		Str("strategy", e.Strategy).
		Str("machine_state", e.MachineState).
		Str("provider", e.Provider).
		Str("outcome", e.Outcome).
		Int("attempt", e.Attempt).
		Dur("latency", e.Latency).
		Msg("turn traced")
}

var _ Sink = (*LogSink)(nil)
