/*
Package collector records the search-engine calls made during a diagnostic
cycle, typically one served HTTP request.

Instrumented clients report each finished call as an Event. The Collector
validates it, decodes the JSON response body into a generic value, renders
the request headers through the Stringifier fixed at construction, and
appends an immutable Trace. A running total of call durations is kept next
to the traces; both are guarded by one lock so readers never see one
without the other.

	c := collector.New(collector.WithLogger(logger))
	client, err := elasticsearch.New("main", cfg, elasticsearch.WithObserver(c))
	if err != nil {
		return err
	}
	_, err = client.Search(ctx, "books", query)
	...
	snap := c.Snapshot()
	fmt.Println(len(snap.Traces), snap.Total)
	c.Reset()

Malformed events (empty method, negative or non-finite duration) are
dropped and logged. Bodies that are not valid JSON are kept as a nil body;
the event is still recorded.
*/
package collector
