package profiler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/elasticsearch"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/config"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
	"github.com/GriffinCanCode/elasticbundle/internal/shared/id"
)

type fixture struct {
	router   *gin.Engine
	profiler *Profiler
	client   *elasticsearch.Client
}

// newFixture wires a fake search node, a client observed by the profiler
// and a router whose /search/:n route makes n calls.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"took":1,"hits":{"hits":[]}}`)
	}))
	t.Cleanup(node.Close)

	store := NewStore(50, 0)
	t.Cleanup(store.Close)
	prof := New(store, collector.FlatStringifier{})

	client, err := elasticsearch.New("main", config.Client{Hosts: []string{node.URL}},
		elasticsearch.WithObserver(prof))
	require.NoError(t, err)
	t.Cleanup(client.Close)

	router := gin.New()
	router.Use(tracing.HTTPMiddleware(logging.NewNop()), prof.Middleware())
	NewHandlers(prof).Register(router)
	router.GET("/search/:n", func(c *gin.Context) {
		var n int
		_, _ = fmt.Sscanf(c.Param("n"), "%d", &n)
		for i := 0; i < n; i++ {
			if _, err := client.Search(c.Request.Context(), fmt.Sprintf("idx%d", i), nil); err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"calls": n})
	})

	return &fixture{router: router, profiler: prof, client: client}
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestMiddlewareStoresProfile(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/search/2")
	require.Equal(t, http.StatusOK, w.Code)

	token := id.Token(w.Header().Get(TokenHeader))
	require.NotEmpty(t, token)
	assert.Equal(t, Link(token), w.Header().Get(TokenLinkHeader))

	profile, ok := f.profiler.Store().Get(token)
	require.True(t, ok)
	assert.Equal(t, "/search/2", profile.URL)
	assert.Equal(t, http.StatusOK, profile.StatusCode)
	assert.Equal(t, id.RequestID(w.Header().Get(tracing.RequestIDHeader)), profile.RequestID)

	traces := profile.Elasticsearch.Traces
	require.Len(t, traces, 2)
	assert.True(t, strings.HasSuffix(traces[0].URI(), "/idx0/_search"))
	assert.True(t, strings.HasSuffix(traces[1].URI(), "/idx1/_search"))
	assert.InDelta(t, traces[0].Duration()+traces[1].Duration(), profile.Elasticsearch.Total, 1e-12)
}

func TestEachRequestGetsItsOwnCollector(t *testing.T) {
	f := newFixture(t)

	first := id.Token(f.do(http.MethodGet, "/search/3").Header().Get(TokenHeader))
	second := id.Token(f.do(http.MethodGet, "/search/1").Header().Get(TokenHeader))

	p1, ok := f.profiler.Store().Get(first)
	require.True(t, ok)
	p2, ok := f.profiler.Store().Get(second)
	require.True(t, ok)

	assert.Len(t, p1.Elasticsearch.Traces, 3)
	assert.Len(t, p2.Elasticsearch.Traces, 1)
}

func TestLateCallStaysWithItsRequest(t *testing.T) {
	f := newFixture(t)

	// /detach hands its request context to work that finishes after the
	// response; /late runs that work while serving another request
	var detached context.Context
	f.router.GET("/detach", func(c *gin.Context) {
		detached = c.Request.Context()
		c.Status(http.StatusAccepted)
	})
	f.router.GET("/late", func(c *gin.Context) {
		_, err := f.client.Info(detached)
		require.NoError(t, err)
		c.Status(http.StatusOK)
	})

	first := id.Token(f.do(http.MethodGet, "/detach").Header().Get(TokenHeader))
	second := id.Token(f.do(http.MethodGet, "/late").Header().Get(TokenHeader))

	p1, ok := f.profiler.Store().Get(first)
	require.True(t, ok)
	p2, ok := f.profiler.Store().Get(second)
	require.True(t, ok)

	assert.Empty(t, p1.Elasticsearch.Traces, "snapshot taken when the request ended")
	assert.Empty(t, p2.Elasticsearch.Traces)
	assert.Zero(t, f.profiler.Background().Len())

	obs, ok := collector.FromContext(detached)
	require.True(t, ok)
	assert.Equal(t, 1, obs.(*collector.Collector).Len())
}

func TestConcurrentRequestsAreIsolated(t *testing.T) {
	f := newFixture(t)

	const requests = 20
	tokens := make([]id.Token, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := i%4 + 1
			w := f.do(http.MethodGet, fmt.Sprintf("/search/%d", n))
			tokens[i] = id.Token(w.Header().Get(TokenHeader))
		}(i)
	}
	wg.Wait()

	for i, token := range tokens {
		profile, ok := f.profiler.Store().Get(token)
		require.True(t, ok)
		assert.Len(t, profile.Elasticsearch.Traces, i%4+1, "request %d", i)
	}
	assert.Zero(t, f.profiler.Background().Len())
}

func TestCallsOutsideRequestsGoToBackground(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.profiler.Background().Len())

	w := f.do(http.MethodGet, "/_profiler/background")
	require.Equal(t, http.StatusOK, w.Code)
	var panel struct {
		Calls int `json:"calls"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &panel))
	assert.Equal(t, 1, panel.Calls)

	w = f.do(http.MethodDelete, "/_profiler/background")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, f.profiler.Background().Len())
}

func TestProfilerRoutes(t *testing.T) {
	f := newFixture(t)

	token := f.do(http.MethodGet, "/search/1").Header().Get(TokenHeader)
	f.do(http.MethodGet, "/search/2")

	t.Run("list", func(t *testing.T) {
		w := f.do(http.MethodGet, "/_profiler?limit=1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get(TokenHeader), "profiler routes are not profiled")

		var body struct {
			Profiles []Summary `json:"profiles"`
			Count    int       `json:"count"`
		}
		require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "/search/2", body.Profiles[0].URL)
		assert.Equal(t, 2, body.Profiles[0].Calls)
	})

	t.Run("bad limit", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/_profiler?limit=x").Code)
	})

	t.Run("show", func(t *testing.T) {
		w := f.do(http.MethodGet, "/_profiler/"+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"url":"/search/1"`)
		assert.Contains(t, w.Body.String(), `"total_duration"`)
	})

	t.Run("panel", func(t *testing.T) {
		w := f.do(http.MethodGet, "/_profiler/"+token+"/elasticsearch")
		require.Equal(t, http.StatusOK, w.Code)

		var panel struct {
			Name   string `json:"name"`
			Calls  int    `json:"calls"`
			Traces []struct {
				Method     string  `json:"method"`
				StatusCode int     `json:"status_code"`
				Took       float64 `json:"took"`
			} `json:"traces"`
		}
		require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &panel))
		assert.Equal(t, "elasticsearch", panel.Name)
		assert.Equal(t, 1, panel.Calls)
		require.Len(t, panel.Traces, 1)
		assert.Equal(t, http.MethodPost, panel.Traces[0].Method)
		assert.Equal(t, http.StatusOK, panel.Traces[0].StatusCode)
		assert.Equal(t, 0.001, panel.Traces[0].Took)
	})

	t.Run("unknown token", func(t *testing.T) {
		unknown := id.NewToken().String()
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/_profiler/"+unknown).Code)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/_profiler/"+unknown+"/elasticsearch").Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/_profiler/prof_nope").Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/_profiler/prof_nope/elasticsearch").Code)
	})
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + RoutePrefix + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello StreamMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)

	resp, err := http.Get(srv.URL + "/search/1")
	require.NoError(t, err)
	resp.Body.Close()
	token := resp.Header.Get(TokenHeader)

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "profile", msg.Type)
	require.NotNil(t, msg.Profile)
	assert.Equal(t, id.Token(token), msg.Profile.Token)
	assert.Equal(t, 1, msg.Profile.Calls)
}
