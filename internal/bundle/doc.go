/*
Package bundle turns a validated bundle configuration into ready-to-use
search-engine clients.

Every client configured under elasticsearch.clients.<name> is registered as
the service "elasticsearch.client.<name>". When default_client is set, the
id "elasticsearch.client.default" aliases it. In debug mode every client is
built with the call observer wired in, so the request profiler sees its
calls; otherwise clients run uninstrumented.

	container, err := bundle.Load(file.Elasticsearch, bundle.Deps{
		Logger:   logger,
		Metrics:  metrics,
		Observer: prof,
		Debug:    true,
	})
	client, err := container.Default()
*/
package bundle
