// Package main is the entry point for the elasticbundle demo host.
//
// The host loads the Elasticsearch bundle configuration, registers one
// client per configured id and serves a search proxy with the request
// profiler mounted under /_profiler.
//
// Configuration:
//   - Environment variables (PORT, LOG_LEVEL, PROFILER_*, RATE_LIMIT_*, ES_CONFIG)
//   - CLI flags (override env vars)
//   - YAML or TOML bundle files, merged in order
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -config config/elasticsearch.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev -config config/elasticsearch.yaml,config/elasticsearch.local.toml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
