package profiler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
	"github.com/GriffinCanCode/elasticbundle/internal/shared/id"
)

// Response headers pointing at a request's profile
const (
	TokenHeader     = "X-Debug-Token"
	TokenLinkHeader = "X-Debug-Token-Link"
)

// Profiler owns the call collectors of served requests. Each request gets a
// fresh collector, snapshotted into a Profile at its end. A call that
// outlives its request still lands in that request's collector and is never
// seen by another profile. Calls made outside any request go to a
// background collector.
type Profiler struct {
	store        *Store
	newCollector func() *collector.Collector
	background   *collector.Collector
	skip         []string

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// Option configures a Profiler
type Option func(*Profiler)

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(p *Profiler) { p.logger = l }
}

// WithMetrics counts collector activity
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Profiler) { p.metrics = m }
}

// WithSkipPrefixes excludes matching paths from profiling
func WithSkipPrefixes(prefixes ...string) Option {
	return func(p *Profiler) { p.skip = append(p.skip, prefixes...) }
}

// New creates a profiler storing into store. The stringifier is fixed for
// every collector the profiler hands out.
func New(store *Store, stringifier collector.Stringifier, opts ...Option) *Profiler {
	p := &Profiler{
		store:  store,
		skip:   []string{RoutePrefix},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("profiler")

	p.newCollector = func() *collector.Collector {
		return collector.New(
			collector.WithStringifier(stringifier),
			collector.WithLogger(p.logger),
			collector.WithMetrics(p.metrics),
		)
	}
	p.background = p.newCollector()
	return p
}

// Store returns the profile store
func (p *Profiler) Store() *Store {
	return p.store
}

// Background returns the collector receiving calls made outside requests
func (p *Profiler) Background() *collector.Collector {
	return p.background
}

// OnCallCompleted records calls whose context carries no request collector
func (p *Profiler) OnCallCompleted(ev collector.Event) {
	p.background.OnCallCompleted(ev)
}

// Middleware profiles every request not under a skipped prefix
func (p *Profiler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p.skipped(c.Request.URL.Path) {
			c.Next()
			return
		}

		coll := p.newCollector()

		token := id.NewToken()
		c.Header(TokenHeader, token.String())
		c.Header(TokenLinkHeader, Link(token))

		ctx := collector.NewContext(c.Request.Context(), coll)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		profile := &Profile{
			Token:         token,
			RequestID:     tracing.RequestID(ctx),
			Method:        c.Request.Method,
			URL:           c.Request.URL.RequestURI(),
			StatusCode:    c.Writer.Status(),
			Time:          start,
			Duration:      time.Since(start),
			Elasticsearch: coll.Snapshot(),
		}
		p.store.Add(profile)

		p.logger.Debug("request profiled",
			zap.String("token", token.String()),
			zap.String("url", profile.URL),
			zap.Int("calls", len(profile.Elasticsearch.Traces)),
			zap.Float64("call_time", profile.Elasticsearch.Total))
	}
}

func (p *Profiler) skipped(path string) bool {
	for _, prefix := range p.skip {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
