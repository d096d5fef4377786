package elasticsearch

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const defaultPort = "9200"

// Host is one parsed node address.
type Host struct {
	Scheme   string
	Address  string // host:port
	Prefix   string // path prefix, no trailing slash
	Username string
	Password string
}

// ParseHost accepts "host", "host:port" or a full URL with optional
// credentials and path prefix. The scheme defaults to http and the port
// to 9200.
func ParseHost(raw string) (Host, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Host{}, fmt.Errorf("empty host")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Host{}, fmt.Errorf("parse host %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Host{}, fmt.Errorf("host %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Hostname() == "" {
		return Host{}, fmt.Errorf("host %q: missing hostname", raw)
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}

	h := Host{
		Scheme:  u.Scheme,
		Address: net.JoinHostPort(u.Hostname(), port),
		Prefix:  strings.TrimRight(u.Path, "/"),
	}
	if u.User != nil {
		h.Username = u.User.Username()
		h.Password, _ = u.User.Password()
	}
	return h, nil
}

// URL joins the host base with path.
func (h Host) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return h.Scheme + "://" + h.Address + h.Prefix + path
}

// String renders the host without credentials.
func (h Host) String() string {
	return h.Scheme + "://" + h.Address + h.Prefix
}

// HasCredentials reports whether the host carries its own basic auth.
func (h Host) HasCredentials() bool {
	return h.Username != ""
}
