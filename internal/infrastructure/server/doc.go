// Package server hosts the Elasticsearch bundle behind a Gin router.
//
// The server wires:
//   - the client container built from the bundle configuration
//   - the middleware stack (recovery, request ID, metrics, CORS, rate
//     limiting, profiler)
//   - a search proxy and health route over the configured clients
//   - the profiler routes under /_profiler
//
// Server Lifecycle:
//  1. Load process configuration from the environment
//  2. Load and merge the bundle configuration files
//  3. Build the profiler store and the client container
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	es, err := config.LoadBundle(cfg.Bundle.Paths...)
//	srv, err := server.New(cfg, es, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
