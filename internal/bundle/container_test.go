package bundle

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/config"
)

func clients(defs map[string][]string) map[string]config.Client {
	out := make(map[string]config.Client, len(defs))
	for name, hosts := range defs {
		out[name] = config.Client{Hosts: hosts}
	}
	return out
}

func TestLoadRejectsMissingHosts(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Elasticsearch
	}{
		{
			name: "no hosts entry",
			cfg:  config.Elasticsearch{Clients: map[string]config.Client{"no_hosts_client": {}}},
		},
		{
			name: "empty hosts",
			cfg:  config.Elasticsearch{Clients: map[string]config.Client{"empty_hosts_client": {Hosts: []string{}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(tt.cfg, Deps{Debug: true})
			assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
			assert.Nil(t, c)
		})
	}
}

func TestLoadSingleClient(t *testing.T) {
	c, err := Load(config.Elasticsearch{
		Clients: clients(map[string][]string{"my_only_client": {"localhost:9200", "localhost:9201"}}),
	}, Deps{Debug: true})
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.Has("elasticsearch.client.my_only_client"))

	def, ok := c.Definition("elasticsearch.client.my_only_client")
	require.True(t, ok)
	assert.Len(t, def.Hosts, 2)

	client, err := c.Client("my_only_client")
	require.NoError(t, err)
	assert.Equal(t, "my_only_client", client.Name())
	assert.Len(t, client.Nodes(), 2)

	_, err = c.Default()
	assert.ErrorIs(t, err, ErrNoDefaultClient)
}

func TestLoadMultipleClients(t *testing.T) {
	c, err := Load(config.Elasticsearch{
		Clients: clients(map[string][]string{
			"my_first_client":  {"localhost:9200", "localhost:9201"},
			"my_second_client": {"myserver:9200"},
		}),
	}, Deps{})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"elasticsearch.client.my_first_client", "elasticsearch.client.my_second_client"}, c.IDs())

	for name, hosts := range map[string]int{"my_first_client": 2, "my_second_client": 1} {
		def, ok := c.Definition(ServiceID(name))
		require.True(t, ok, name)
		assert.Len(t, def.Hosts, hosts, name)

		client, err := c.Get(ServiceID(name))
		require.NoError(t, err)
		assert.Equal(t, name, client.Name())
	}
	assert.Len(t, c.Clients(), 2)
}

func TestDefaultClientAlias(t *testing.T) {
	c, err := Load(config.Elasticsearch{
		DefaultClient: "my_second_client",
		Clients: clients(map[string][]string{
			"my_first_client":  {"localhost:9200"},
			"my_second_client": {"myserver:9200"},
		}),
	}, Deps{})
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.Has(DefaultServiceID))
	assert.Equal(t, map[string]string{DefaultServiceID: "elasticsearch.client.my_second_client"}, c.Aliases())

	def, ok := c.Definition(DefaultServiceID)
	require.True(t, ok)
	assert.Equal(t, []string{"myserver:9200"}, def.Hosts)

	client, err := c.Default()
	require.NoError(t, err)
	second, err := c.Client("my_second_client")
	require.NoError(t, err)
	assert.Same(t, second, client)
}

func TestUnknownDefaultClient(t *testing.T) {
	_, err := Load(config.Elasticsearch{
		DefaultClient: "ghost",
		Clients:       clients(map[string][]string{"main": {"localhost:9200"}}),
	}, Deps{})
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestGetUnknownService(t *testing.T) {
	c, err := Load(config.Elasticsearch{Clients: clients(map[string][]string{"main": {"localhost"}})}, Deps{})
	require.NoError(t, err)

	_, err = c.Get("elasticsearch.client.other")
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.False(t, c.Has("elasticsearch.client.other"))

	_, ok := c.Definition("elasticsearch.client.other")
	assert.False(t, ok)

	c.Close()
	c.Close()
	_, err = c.Client("main")
	assert.ErrorIs(t, err, ErrContainerClosed)
}

func TestDefinitionIsACopy(t *testing.T) {
	c, err := Load(config.Elasticsearch{Clients: clients(map[string][]string{"main": {"a", "b"}})}, Deps{})
	require.NoError(t, err)
	defer c.Close()

	def, _ := c.Definition(ServiceID("main"))
	def.Hosts[0] = "mutated"

	again, _ := c.Definition(ServiceID("main"))
	assert.Equal(t, "a", again.Hosts[0])
}

type countingObserver struct {
	mu    sync.Mutex
	calls int
}

func (o *countingObserver) OnCallCompleted(collector.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
}

func (o *countingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func TestObserverWiredOnlyInDebug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"took":1}`)
	}))
	defer srv.Close()

	cfg := config.Elasticsearch{Clients: clients(map[string][]string{"main": {srv.URL}})}

	for _, debug := range []bool{true, false} {
		obs := &countingObserver{}
		c, err := Load(cfg, Deps{Observer: obs, Debug: debug})
		require.NoError(t, err)

		client, err := c.Client("main")
		require.NoError(t, err)
		_, err = client.Info(context.Background())
		require.NoError(t, err)

		if debug {
			assert.Equal(t, 1, obs.count())
			assert.NotNil(t, c.Observer())
		} else {
			assert.Zero(t, obs.count())
			assert.Nil(t, c.Observer())
		}
		c.Close()
	}
}

func TestBuildFailureIsWrapped(t *testing.T) {
	_, err := Load(config.Elasticsearch{Clients: clients(map[string][]string{"main": {"ftp://nope"}})}, Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "elasticsearch.client.main")
}
