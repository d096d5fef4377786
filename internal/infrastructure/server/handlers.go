package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/elasticbundle/internal/bundle"
	"github.com/GriffinCanCode/elasticbundle/internal/elasticsearch"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
)

const (
	healthTimeout = 3 * time.Second
	maxQuerySize  = 1 << 20
)

type handlers struct {
	container *bundle.Container
	metrics   *monitoring.Metrics
	logger    *logging.Logger
}

func (h *handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":  "elasticbundle",
		"services": h.container.IDs(),
		"aliases":  h.container.Aliases(),
	})
}

type nodeHealth struct {
	Host string `json:"host"`
	elasticsearch.NodeStats
}

type clientHealth struct {
	Alive bool         `json:"alive"`
	Error string       `json:"error,omitempty"`
	Nodes []nodeHealth `json:"nodes"`
}

// health pings every client; the service is degraded when any is down
func (h *handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	clients := h.container.Clients()
	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	report := make(map[string]clientHealth, len(clients))
	for _, name := range names {
		client := clients[name]
		alive, err := client.Ping(ctx)

		ch := clientHealth{Alive: alive}
		if err != nil {
			ch.Error = err.Error()
		}
		for _, n := range client.Nodes() {
			ch.Nodes = append(ch.Nodes, nodeHealth{Host: n.Host.String(), NodeStats: n.Stats()})
		}
		if !alive {
			status = "degraded"
		}
		report[name] = ch
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "clients": report})
}

// search proxies a raw query to a configured client
func (h *handlers) search(c *gin.Context) {
	client, err := h.container.Client(c.Param("client"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bundle.ErrServiceNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	query, err := io.ReadAll(io.LimitReader(c.Request.Body, maxQuerySize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read query"})
		return
	}
	var body any
	if len(query) > 0 {
		body = query
	}

	resp, err := client.Search(c.Request.Context(), c.Param("index"), body)
	if resp != nil {
		// error statuses from the search engine are passed through
		c.Data(resp.StatusCode, "application/json", resp.Body)
		return
	}

	h.logger.Warn("search failed", zap.String("client", client.Name()), zap.Error(err))
	status := http.StatusBadGateway
	if errors.Is(err, elasticsearch.ErrAllHostsDead) || errors.Is(err, elasticsearch.ErrNoHosts) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *handlers) metricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
