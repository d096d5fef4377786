/*
Package tracing propagates a request identifier from the served HTTP request
down to every search-engine call it triggers.

The HTTP middleware assigns the ID (or adopts the caller's X-Request-ID) and
stores it in the request context. Clients copy it into the X-Opaque-Id header
of their calls, so a slow query in the search engine's logs can be matched to
the request and its profile.

	router.Use(tracing.HTTPMiddleware(logger))

	// inside a client
	tracing.InjectOpaqueID(ctx, req.Header)
*/
package tracing
