package elasticsearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/config"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
)

const (
	userAgent       = "elasticbundle/1.0"
	contentJSON     = "application/json"
	contentNDJSON   = "application/x-ndjson"
	headerAuthorize = "Authorization"
)

// Request describes one logical call. Body may be nil, []byte, string or
// any value sonic can encode.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Client is a search-engine client that reports every network attempt to
// an observer.
type Client struct {
	name     string
	pool     *Pool
	resty    *resty.Client
	limiter  *rate.Limiter
	retries  int
	compress bool
	headers  http.Header

	observer collector.Observer
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	breaker  resilience.Settings

	mu sync.RWMutex
}

// Option configures a Client.
type Option func(*Client)

// WithObserver injects the observer used when the call context carries none.
func WithObserver(obs collector.Observer) Option {
	return func(c *Client) { c.observer = obs }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics enables per-call metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBreakerSettings overrides node health tracking for static pools.
func WithBreakerSettings(s resilience.Settings) Option {
	return func(c *Client) { c.breaker = s }
}

// New builds the client named name from its configuration.
func New(name string, cfg config.Client, opts ...Option) (*Client, error) {
	if len(cfg.Hosts) == 0 {
		return nil, ErrNoHosts
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", name, err)
	}
	if cfg.RetryCount() < 0 {
		return nil, fmt.Errorf("client %s: retries must be >= 0", name)
	}

	hosts := make([]Host, 0, len(cfg.Hosts))
	for _, raw := range cfg.Hosts {
		h, err := ParseHost(raw)
		if err != nil {
			return nil, fmt.Errorf("client %s: %w", name, err)
		}
		hosts = append(hosts, h)
	}

	c := &Client{
		name:     name,
		retries:  cfg.RetryCount(),
		compress: params.Compression,
		headers:  make(http.Header),
		limiter:  rate.NewLimiter(rate.Inf, 0),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.Named("elasticsearch").Named(cfg.Logger).With(zap.String("client", name))
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	selector, err := NewSelector(cfg.SelectorKind())
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", name, err)
	}
	settings := c.breaker
	if settings.OnStateChange == nil {
		settings.OnStateChange = c.logNodeState
	}
	if c.pool, err = NewPool(cfg.PoolKind(), hosts, selector, settings); err != nil {
		return nil, fmt.Errorf("client %s: %w", name, err)
	}

	// Failover across hosts is done per attempt below, so the transport
	// itself never retries.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	c.resty = resty.New().
		SetTimeout(params.Timeout).
		SetRetryCount(0).
		SetLogger(c.logger.Sugar()).
		SetTransport(retryClient.HTTPClient.Transport)

	c.headers.Set("User-Agent", userAgent)
	c.headers.Set("Accept", contentJSON)
	for k, v := range cfg.Headers {
		c.headers.Set(k, v)
	}
	switch {
	case params.APIKey != "":
		c.headers.Set(headerAuthorize, "ApiKey "+params.APIKey)
	case params.Username != "":
		c.resty.SetBasicAuth(params.Username, params.Password)
	}

	return c, nil
}

// Name returns the client's configured id.
func (c *Client) Name() string {
	return c.name
}

// Nodes returns the client's nodes in host order.
func (c *Client) Nodes() []*Node {
	return c.pool.Nodes()
}

// SetObserver replaces the injected observer.
func (c *Client) SetObserver(obs collector.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = obs
}

// Close releases idle connections.
func (c *Client) Close() {
	c.resty.GetClient().CloseIdleConnections()
}

// Perform executes req, failing over to another node on transport errors
// up to the configured number of retries. Error statuses are returned as
// *ResponseError together with the response.
func (c *Client) Perform(ctx context.Context, req Request) (*Response, error) {
	payload, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: encode %s %s: %w", req.Method, req.Path, err)
	}
	if payload != nil && c.compress {
		if payload, err = gzipBytes(payload); err != nil {
			return nil, fmt.Errorf("elasticsearch: compress body: %w", err)
		}
	}

	attempts := c.retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		node, err := c.pool.Next()
		if err != nil {
			if lastErr != nil {
				return nil, errors.Join(err, lastErr)
			}
			return nil, err
		}

		if err := c.limiter.Wait(ctx); err != nil {
			node.release()
			return nil, fmt.Errorf("elasticsearch: rate limit: %w", err)
		}

		resp, err := c.attempt(ctx, node, req, payload, contentType)
		if err == nil {
			node.success()
			return resp, resp.Err()
		}
		if ctx.Err() != nil {
			// the caller gave up, the node is not to blame
			node.release()
			return nil, err
		}

		node.failure()
		lastErr = err
		if attempt < attempts-1 {
			c.metrics.RecordFailover(c.name)
			c.logger.Warn("call failed, trying another node",
				zap.String("host", node.Host.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, node *Node, req Request, payload []byte, contentType string) (*Response, error) {
	r := c.resty.R().SetContext(ctx)

	header := c.headers.Clone()
	for k, v := range req.Header {
		header[k] = append([]string(nil), v...)
	}
	if payload != nil {
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", contentType)
		}
		if c.compress {
			header.Set("Content-Encoding", "gzip")
		}
		r.SetBody(payload)
	}
	tracing.InjectOpaqueID(ctx, header)
	r.SetHeaderMultiValues(header)

	if node.Host.HasCredentials() {
		r.SetBasicAuth(node.Host.Username, node.Host.Password)
	}

	uri := node.Host.URL(req.Path)
	if len(req.Query) > 0 {
		uri += "?" + req.Query.Encode()
	}

	start := time.Now()
	res, err := r.Execute(req.Method, uri)
	elapsed := time.Since(start)

	ev := collector.Event{
		Method:   req.Method,
		URI:      uri,
		Headers:  redact(header),
		Duration: elapsed.Seconds(),
	}

	if err != nil {
		ev.Error = err.Error()
		c.emit(ctx, ev)
		c.metrics.RecordCall(c.name, req.Method, "error", elapsed)
		c.logger.Debug("call failed",
			zap.String("method", req.Method),
			zap.String("uri", uri),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return nil, fmt.Errorf("elasticsearch: %s %s: %w", req.Method, uri, err)
	}

	resp := &Response{
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		Body:       res.Body(),
		Took:       -1,
	}
	if ms, ok := tookMillis(resp.Body); ok {
		resp.Took = ms
		took := float64(ms) / 1000
		ev.Took = &took
	}

	ev.StatusCode = resp.StatusCode
	ev.Body = resp.Body
	if respErr := resp.Err(); respErr != nil {
		ev.Error = respErr.Error()
	}
	c.emit(ctx, ev)
	c.metrics.RecordCall(c.name, req.Method, strconv.Itoa(resp.StatusCode), elapsed)
	c.logger.Debug("call completed",
		zap.String("method", req.Method),
		zap.String("uri", uri),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed))

	return resp, nil
}

// emit delivers ev to the context's observer, falling back to the
// injected one.
func (c *Client) emit(ctx context.Context, ev collector.Event) {
	obs, ok := collector.FromContext(ctx)
	if !ok {
		c.mu.RLock()
		obs = c.observer
		c.mu.RUnlock()
	}
	if obs != nil {
		obs.OnCallCompleted(ev)
	}
}

func (c *Client) logNodeState(host string, from, to resilience.State) {
	switch to {
	case resilience.StateOpen:
		c.logger.Warn("node marked dead", zap.String("host", host), zap.String("from", from.String()))
	default:
		c.logger.Info("node state changed",
			zap.String("host", host),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, contentJSON, nil
	case string:
		return []byte(b), contentJSON, nil
	case ndjson:
		return b, contentNDJSON, nil
	default:
		data, err := sonic.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return data, contentJSON, nil
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// redact drops credentials from headers recorded in traces.
func redact(h http.Header) http.Header {
	out := h.Clone()
	out.Del(headerAuthorize)
	return out
}
