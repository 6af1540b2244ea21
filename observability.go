package braidsched

import (
	"context"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability carries coarse-grained lifecycle signals that sit
// beside, not inside, the zero-allocation hot path: scheduler start
// and stop, a pipe-overflow/inline-execution fallback, and Wait's
// begin/end. Modeled on the hookz+metricz+tracez trio pipz's
// connectors (Backoff, WorkerPool, CircuitBreaker) wire for their own
// non-hot-path events.
//
// A nil *Observability disables all of this (every method is a no-op
// on a nil receiver), so opting out costs nothing.
type Observability struct {
	hooks        *hookz.Hooks[Event]
	metrics      *metricz.Registry
	tracer       *tracez.Tracer
	lifetimeSpan *tracez.Span
}

// Event is the payload delivered to hooks registered via
// Observability.On.
type Event struct {
	Kind      EventKind
	WorkerID  int // -1 when not worker-specific
	Timestamp time.Time
}

// EventKind enumerates the lifecycle signals this package emits.
type EventKind int

const (
	EventSchedulerStarted EventKind = iota
	EventSchedulerStopped
	EventPipeOverflow
	EventWaitBegin
	EventWaitEnd
)

var eventKeys = map[EventKind]hookz.Key{
	EventSchedulerStarted: hookz.Key("scheduler.started"),
	EventSchedulerStopped: hookz.Key("scheduler.stopped"),
	EventPipeOverflow:     hookz.Key("scheduler.pipe_overflow"),
	EventWaitBegin:        hookz.Key("scheduler.wait_begin"),
	EventWaitEnd:          hookz.Key("scheduler.wait_end"),
}

const (
	metricOverflowTotal   = metricz.Key("scheduler.overflow.total")
	metricThreadsRunning  = metricz.Key("scheduler.threads_running")
	metricThreadsWaiting  = metricz.Key("scheduler.threads_waiting")
	spanSchedulerLifetime = tracez.Key("scheduler.lifetime")
	spanWait              = tracez.Key("scheduler.wait")
	tagThreadCount        = tracez.Tag("scheduler.thread_count")
)

// NewObservability builds an Observability instance. Call Close when
// the owning scheduler stops for good.
func NewObservability() *Observability {
	return &Observability{
		hooks:   hookz.New[Event](),
		metrics: metricz.New(),
		tracer:  tracez.New(),
	}
}

// On registers handler for kind. Handlers run asynchronously via
// hookz and must not be relied on for ordering against the hot path.
func (o *Observability) On(kind EventKind, handler func(context.Context, Event) error) error {
	if o == nil {
		return nil
	}
	_, err := o.hooks.Hook(eventKeys[kind], handler)
	return err
}

// Metrics exposes the underlying registry for external scraping.
func (o *Observability) Metrics() *metricz.Registry {
	if o == nil {
		return nil
	}
	return o.metrics
}

// Close releases the hook and tracer resources.
func (o *Observability) Close() {
	if o == nil {
		return
	}
	o.hooks.Close()
	o.tracer.Close()
}

func (o *Observability) emit(ctx context.Context, kind EventKind, workerID int) {
	if o == nil {
		return
	}
	_ = o.hooks.Emit(ctx, eventKeys[kind], Event{Kind: kind, WorkerID: workerID, Timestamp: time.Now()}) //nolint:errcheck
}

func (o *Observability) started(threadCount int) {
	if o == nil {
		return
	}
	o.metrics.Gauge(metricThreadsRunning).Set(float64(threadCount))
	_, span := o.tracer.StartSpan(context.Background(), spanSchedulerLifetime)
	span.SetTag(tagThreadCount, itoa(threadCount))
	o.lifetimeSpan = span
	o.emit(context.Background(), EventSchedulerStarted, -1)
}

func (o *Observability) stopped() {
	if o == nil {
		return
	}
	if o.lifetimeSpan != nil {
		o.lifetimeSpan.Finish()
		o.lifetimeSpan = nil
	}
	o.emit(context.Background(), EventSchedulerStopped, -1)
}

func (o *Observability) overflow(workerID int) {
	if o == nil {
		return
	}
	o.metrics.Counter(metricOverflowTotal).Inc()
	o.emit(context.Background(), EventPipeOverflow, workerID)
}

func (o *Observability) waitBegin() (ctx context.Context, span *tracez.Span) {
	if o == nil {
		return context.Background(), nil
	}
	o.emit(context.Background(), EventWaitBegin, -1)
	ctx, span = o.tracer.StartSpan(context.Background(), spanWait)
	return ctx, span
}

func (o *Observability) waitEnd(span *tracez.Span) {
	if o == nil {
		return
	}
	if span != nil {
		span.Finish()
	}
	o.emit(context.Background(), EventWaitEnd, -1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
