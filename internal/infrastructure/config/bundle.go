package config

import (
	"fmt"
	"sort"
	"time"
)

// Connection pool kinds.
const (
	PoolStatic = "static"
	PoolSimple = "simple"
)

// Host selector kinds.
const (
	SelectorRoundRobin = "round_robin"
	SelectorRandom     = "random"
	SelectorSticky     = "sticky"
)

// File is the top level of a bundle configuration file.
type File struct {
	Elasticsearch Elasticsearch `yaml:"elasticsearch" toml:"elasticsearch"`
}

// Elasticsearch lists the named clients the bundle builds.
type Elasticsearch struct {
	DefaultClient string            `yaml:"default_client" toml:"default_client"`
	Clients       map[string]Client `yaml:"clients" toml:"clients"`
}

// Client describes one search-engine client.
type Client struct {
	Hosts          []string `yaml:"hosts" toml:"hosts"`
	ConnectionPool string   `yaml:"connection_pool" toml:"connection_pool"`
	Selector       string   `yaml:"selector" toml:"selector"`

	// ConnectionParams must be a mapping; it is kept raw until validation so a
	// scalar can be reported instead of silently dropped.
	ConnectionParams any `yaml:"connection_params" toml:"connection_params"`

	Retries   *int              `yaml:"retries" toml:"retries"`
	Logger    string            `yaml:"logger" toml:"logger"`
	Headers   map[string]string `yaml:"headers" toml:"headers"`
	RateLimit float64           `yaml:"rate_limit" toml:"rate_limit"`
}

// ConnectionParams are the typed transport settings of a client.
type ConnectionParams struct {
	Timeout     time.Duration
	Username    string
	Password    string
	APIKey      string
	Compression bool

	// Extra holds keys the bundle does not interpret.
	Extra map[string]any
}

// DefaultTimeout applies when connection_params has no timeout.
const DefaultTimeout = 30 * time.Second

// IDs returns the configured client ids, sorted.
func (e Elasticsearch) IDs() []string {
	ids := make([]string, 0, len(e.Clients))
	for id := range e.Clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PoolKind returns the configured pool, defaulting to static.
func (c Client) PoolKind() string {
	if c.ConnectionPool == "" {
		return PoolStatic
	}
	return c.ConnectionPool
}

// SelectorKind returns the configured selector, defaulting to round robin.
func (c Client) SelectorKind() string {
	if c.Selector == "" {
		return SelectorRoundRobin
	}
	return c.Selector
}

// RetryCount returns the configured retries. Without an explicit value a
// client retries once per extra host.
func (c Client) RetryCount() int {
	if c.Retries != nil {
		return *c.Retries
	}
	if len(c.Hosts) > 1 {
		return len(c.Hosts) - 1
	}
	return 0
}

// Params decodes ConnectionParams.
func (c Client) Params() (ConnectionParams, error) {
	params := ConnectionParams{Timeout: DefaultTimeout}
	if c.ConnectionParams == nil {
		return params, nil
	}

	raw, ok := asMap(c.ConnectionParams)
	if !ok {
		return params, fmt.Errorf("connection_params must be a mapping, got %T", c.ConnectionParams)
	}

	for key, value := range raw {
		switch key {
		case "timeout":
			d, err := asDuration(value)
			if err != nil {
				return params, fmt.Errorf("connection_params.timeout: %w", err)
			}
			params.Timeout = d
		case "username":
			params.Username = fmt.Sprint(value)
		case "password":
			params.Password = fmt.Sprint(value)
		case "api_key":
			params.APIKey = fmt.Sprint(value)
		case "compression":
			b, ok := value.(bool)
			if !ok {
				return params, fmt.Errorf("connection_params.compression must be a boolean, got %T", value)
			}
			params.Compression = b
		default:
			if params.Extra == nil {
				params.Extra = make(map[string]any)
			}
			params.Extra[key] = value
		}
	}
	return params, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[fmt.Sprint(k)] = item
		}
		return out, true
	default:
		return nil, false
	}
}

// asDuration accepts Go duration strings ("5s") or a number of seconds.
func asDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, err
		}
		if d < 0 {
			return 0, fmt.Errorf("negative duration %s", val)
		}
		return d, nil
	case int, int64, uint64, float64:
		seconds := toFloat(val)
		if seconds < 0 {
			return 0, fmt.Errorf("negative duration %v", val)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported duration type %T", v)
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
