package bundle

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/elasticsearch"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/config"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
)

const (
	// ServicePrefix prefixes every client service id
	ServicePrefix = "elasticsearch.client."

	// DefaultServiceID aliases the configured default client
	DefaultServiceID = ServicePrefix + "default"
)

var (
	ErrServiceNotFound = errors.New("bundle: service not found")
	ErrNoDefaultClient = errors.New("bundle: no default client configured")
	ErrContainerClosed = errors.New("bundle: container closed")
)

// ServiceID returns the service id of the client named name
func ServiceID(name string) string {
	return ServicePrefix + name
}

// Deps are the shared services injected into every client
type Deps struct {
	Logger  *logging.Logger
	Metrics *monitoring.Metrics

	// Observer receives call events when Debug is set
	Observer collector.Observer
	Debug    bool

	// ClientOptions are appended to the options of every client
	ClientOptions []elasticsearch.Option
}

type service struct {
	client     *elasticsearch.Client
	definition config.Client
}

// Container holds the clients built from one bundle configuration
type Container struct {
	services map[string]service
	aliases  map[string]string
	observer collector.Observer
	logger   *logging.Logger

	mu     sync.RWMutex
	closed bool
}

// Load validates cfg and builds one client per configured id
func Load(cfg config.Elasticsearch, deps Deps) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Container{
		services: make(map[string]service, len(cfg.Clients)),
		aliases:  make(map[string]string),
		logger:   logger.Named("bundle"),
	}
	if deps.Debug {
		c.observer = deps.Observer
	}

	for _, name := range cfg.IDs() {
		def := cfg.Clients[name]

		opts := []elasticsearch.Option{
			elasticsearch.WithLogger(logger),
			elasticsearch.WithMetrics(deps.Metrics),
		}
		if c.observer != nil {
			opts = append(opts, elasticsearch.WithObserver(c.observer))
		}
		opts = append(opts, deps.ClientOptions...)

		client, err := elasticsearch.New(name, def, opts...)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("bundle: build %s: %w", ServiceID(name), err)
		}
		c.services[ServiceID(name)] = service{client: client, definition: cloneClient(def)}
	}

	if cfg.DefaultClient != "" {
		c.aliases[DefaultServiceID] = ServiceID(cfg.DefaultClient)
	}

	c.logger.Info("clients registered",
		zap.Strings("services", c.IDs()),
		zap.String("default", cfg.DefaultClient),
		zap.Bool("instrumented", c.observer != nil))

	return c, nil
}

func (c *Container) resolve(id string) string {
	if target, ok := c.aliases[id]; ok {
		return target
	}
	return id
}

// Has reports whether id names a service or alias
func (c *Container) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[c.resolve(id)]
	return ok
}

// Get returns the client registered under id or an alias of it
func (c *Container) Get(id string) (*elasticsearch.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrContainerClosed
	}
	svc, ok := c.services[c.resolve(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}
	return svc.client, nil
}

// Client returns the client configured under name
func (c *Container) Client(name string) (*elasticsearch.Client, error) {
	return c.Get(ServiceID(name))
}

// Default returns the default client
func (c *Container) Default() (*elasticsearch.Client, error) {
	c.mu.RLock()
	_, ok := c.aliases[DefaultServiceID]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNoDefaultClient
	}
	return c.Get(DefaultServiceID)
}

// Definition returns the configuration a service was built from
func (c *Container) Definition(id string) (config.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.services[c.resolve(id)]
	if !ok {
		return config.Client{}, false
	}
	return cloneClient(svc.definition), true
}

// IDs returns the registered service ids, aliases excluded, sorted
func (c *Container) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.services))
	for id := range c.services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Aliases returns a copy of the alias table
func (c *Container) Aliases() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.aliases))
	for k, v := range c.aliases {
		out[k] = v
	}
	return out
}

// Clients returns every client keyed by its configured name
func (c *Container) Clients() map[string]*elasticsearch.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*elasticsearch.Client, len(c.services))
	for _, svc := range c.services {
		out[svc.client.Name()] = svc.client
	}
	return out
}

// Observer returns the observer wired into the clients, nil outside debug
func (c *Container) Observer() collector.Observer {
	return c.observer
}

// Close releases every client's idle connections
func (c *Container) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, svc := range c.services {
		svc.client.Close()
	}
}

func cloneClient(def config.Client) config.Client {
	def.Hosts = append([]string(nil), def.Hosts...)
	if def.Headers != nil {
		headers := make(map[string]string, len(def.Headers))
		for k, v := range def.Headers {
			headers[k] = v
		}
		def.Headers = headers
	}
	if def.Retries != nil {
		retries := *def.Retries
		def.Retries = &retries
	}
	return def
}
