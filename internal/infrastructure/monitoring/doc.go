/*
Package monitoring provides Prometheus metrics for the bundle and its host.

# Overview

Metrics are registered on an explicit registry instead of the global one so
that several containers (and tests) can coexist in one process.

# Features

- HTTP request metrics for the host server (latency, status)
- Search-engine call metrics per client (count, latency, failovers)
- Data collector metrics (recorded and rejected traces)
- Profiler store metrics (stored and evicted profiles)

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
