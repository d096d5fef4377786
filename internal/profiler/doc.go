/*
Package profiler records, per served request, the search-engine calls the
request made.

The middleware takes a collector from a pool, resets it, places it in the
request context and, once the handler returns, stores a snapshot as a
Profile. Responses carry X-Debug-Token and X-Debug-Token-Link headers
pointing at the stored profile:

	GET /_profiler                          recent profiles
	GET /_profiler/:token                   one profile
	GET /_profiler/:token/elasticsearch     call panel with latency summary
	GET /_profiler/background               calls made outside requests
	GET /_profiler/stream                   websocket feed of new profiles

Calls a handler leaves running after it returns are not attributed to its
profile.
*/
package profiler
