package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfiguration is wrapped by every validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// InvalidConfigurationError locates a validation failure in the config tree.
type InvalidConfigurationError struct {
	Path   string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration, e.Path, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

func invalid(path, format string, args ...any) error {
	return &InvalidConfigurationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the client definitions. Clients are checked in id order so
// the reported error is stable.
func (e Elasticsearch) Validate() error {
	for _, id := range e.IDs() {
		if err := e.Clients[id].validate("elasticsearch.clients." + id); err != nil {
			return err
		}
	}

	if e.DefaultClient != "" {
		if _, ok := e.Clients[e.DefaultClient]; !ok {
			return invalid("elasticsearch.default_client", "unknown client %q", e.DefaultClient)
		}
	}
	return nil
}

func (c Client) validate(path string) error {
	if c.Hosts == nil {
		return invalid(path+".hosts", "the child node \"hosts\" must be configured")
	}
	if len(c.Hosts) == 0 {
		return invalid(path+".hosts", "should have at least 1 element")
	}
	for i, host := range c.Hosts {
		if strings.TrimSpace(host) == "" {
			return invalid(fmt.Sprintf("%s.hosts[%d]", path, i), "host cannot be blank")
		}
	}

	switch c.PoolKind() {
	case PoolStatic, PoolSimple:
	default:
		return invalid(path+".connection_pool", "unknown pool %q", c.ConnectionPool)
	}

	switch c.SelectorKind() {
	case SelectorRoundRobin, SelectorRandom, SelectorSticky:
	default:
		return invalid(path+".selector", "unknown selector %q", c.Selector)
	}

	if _, isString := c.ConnectionParams.(string); isString {
		return invalid(path+".connection_params", "connection_params cannot be a string")
	}
	if _, err := c.Params(); err != nil {
		return invalid(path+".connection_params", "%v", err)
	}

	if c.Retries != nil && *c.Retries < 0 {
		return invalid(path+".retries", "must be >= 0, got %d", *c.Retries)
	}
	if c.RateLimit < 0 {
		return invalid(path+".rate_limit", "must be >= 0, got %v", c.RateLimit)
	}
	return nil
}
