package collector

import (
	"errors"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
)

// Name identifies the collector's panel in the profiler.
const Name = "elasticsearch"

// Collector records every search-engine call made during one diagnostic
// cycle. It is safe for concurrent producers and readers.
type Collector struct {
	mu     sync.RWMutex
	traces []Trace
	total  float64

	stringify Stringifier
	logger    *logging.Logger
	metrics   *monitoring.Metrics
}

// Snapshot is a consistent view of a collector: Total is the sum of the
// durations of exactly the traces in Traces.
type Snapshot struct {
	Traces []Trace `json:"traces"`
	Total  float64 `json:"total_duration"`
}

// Option configures a Collector.
type Option func(*Collector)

// WithStringifier selects how header maps are rendered.
func WithStringifier(s Stringifier) Option {
	return func(c *Collector) {
		if s != nil {
			c.stringify = s
		}
	}
}

// WithLogger sets the logger used for rejected events and decode failures.
func WithLogger(l *logging.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics counts recorded and rejected events.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}

// New creates an empty collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		stringify: FlatStringifier{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the panel name.
func (c *Collector) Name() string {
	return Name
}

// OnCallCompleted records ev. Malformed events are logged and dropped; this
// never fails the caller.
func (c *Collector) OnCallCompleted(ev Event) {
	if err := c.Record(ev); err != nil {
		var malformed *MalformedEventError
		if errors.As(err, &malformed) {
			c.logger.Warn("rejected call event",
				zap.String("reason", malformed.Reason),
				zap.String("method", ev.Method),
				zap.String("uri", ev.URI),
				zap.Float64("duration", ev.Duration),
			)
		}
	}
}

// Record validates ev, appends its trace and adds its duration to the total.
// It returns a *MalformedEventError and leaves the state untouched when ev is
// rejected.
func (c *Collector) Record(ev Event) error {
	if err := ev.Validate(); err != nil {
		if c.metrics != nil {
			var malformed *MalformedEventError
			if errors.As(err, &malformed) {
				c.metrics.RecordRejectedEvent(malformed.Reason)
			}
		}
		return err
	}

	trace := c.buildTrace(ev)

	c.mu.Lock()
	c.traces = append(c.traces, trace)
	c.total += trace.duration
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordTrace()
	}
	return nil
}

func (c *Collector) buildTrace(ev Event) Trace {
	t := Trace{
		method:     ev.Method,
		uri:        ev.URI,
		headers:    c.stringify.Stringify(ev.Headers),
		statusCode: ev.StatusCode,
		duration:   ev.Duration,
		body:       c.decodeBody(ev),
		err:        ev.Error,
	}
	if ev.Took != nil {
		took := *ev.Took
		t.took = &took
	}
	return t
}

// decodeBody turns the raw payload into a generic value. Undecodable
// payloads become nil.
func (c *Collector) decodeBody(ev Event) any {
	if len(ev.Body) == 0 {
		return nil
	}

	var body any
	if err := sonic.Unmarshal(ev.Body, &body); err != nil {
		c.logger.Debug("response body is not valid JSON",
			zap.String("method", ev.Method),
			zap.String("uri", ev.URI),
			zap.Int("size", len(ev.Body)),
			zap.Error(err),
		)
		return nil
	}
	return body
}

// Traces returns the recorded traces in recording order. The slice is a copy.
func (c *Collector) Traces() []Trace {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyTraces()
}

// TotalDuration returns the sum of all recorded durations, in seconds.
func (c *Collector) TotalDuration() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Len returns the number of recorded traces.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.traces)
}

// Snapshot returns the traces and their total under a single lock.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Traces: c.copyTraces(),
		Total:  c.total,
	}
}

// Reset empties the collector. It is meant to be called at a cycle boundary.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.traces = nil
	c.total = 0
	c.mu.Unlock()
}

// copyTraces must be called with mu held.
func (c *Collector) copyTraces() []Trace {
	out := make([]Trace, len(c.traces))
	copy(out, c.traces)
	return out
}
