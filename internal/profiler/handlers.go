package profiler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/shared/id"
)

// RoutePrefix is where the profiler routes are mounted
const RoutePrefix = "/_profiler"

const defaultListLimit = 20

// Handlers serves stored profiles
type Handlers struct {
	profiler *Profiler
}

// NewHandlers creates the profiler HTTP handlers
func NewHandlers(p *Profiler) *Handlers {
	return &Handlers{profiler: p}
}

// Register mounts the profiler routes
func (h *Handlers) Register(r gin.IRouter) {
	g := r.Group(RoutePrefix)
	g.GET("", h.List)
	g.GET("/stream", h.Stream)
	g.GET("/background", h.Background)
	g.DELETE("/background", h.ResetBackground)
	g.GET("/:token", h.Show)
	g.GET("/:token/"+collector.Name, h.Panel)
}

// List returns recent profile summaries
func (h *Handlers) List(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	profiles := h.profiler.Store().Recent(limit)
	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// Show returns a full profile
func (h *Handlers) Show(c *gin.Context) {
	profile, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Panel returns the search-engine panel of a profile
func (h *Handlers) Panel(c *gin.Context) {
	profile, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewPanel(profile.Token, profile.Elasticsearch))
}

// Background returns the panel of calls made outside any request
func (h *Handlers) Background(c *gin.Context) {
	c.JSON(http.StatusOK, NewPanel("", h.profiler.Background().Snapshot()))
}

// ResetBackground clears the background collector
func (h *Handlers) ResetBackground(c *gin.Context) {
	h.profiler.Background().Reset()
	c.Status(http.StatusNoContent)
}

func (h *Handlers) lookup(c *gin.Context) (Profile, bool) {
	token := id.Token(c.Param("token"))
	if !id.IsValid(token.String()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed profile token", "token": token})
		return Profile{}, false
	}
	profile, ok := h.profiler.Store().Get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found", "token": token})
		return Profile{}, false
	}
	return profile, true
}
