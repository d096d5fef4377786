/*
Package elasticsearch provides the instrumented search-engine client the
bundle registers for every configured connection.

Each client owns a pool of nodes. Static pools track node health with one
circuit breaker per host: a transport failure marks the node dead, and after
its cooldown a single caller probes it again. Simple pools never mark nodes
dead. A selector (round robin, random or sticky) picks among live nodes.

Every network attempt, failed or not, is reported as a collector.Event. The
observer stored in the call's context wins over the one injected at
construction, so a per-request collector sees exactly the calls its request
made:

	ctx = collector.NewContext(ctx, requestCollector)
	resp, err := client.Search(ctx, "products", query)

Error statuses come back as *ResponseError alongside the response; transport
failures are retried on other nodes up to the configured retry count.
*/
package elasticsearch
