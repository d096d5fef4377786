/*
Package resilience provides the circuit breaker that connection pools use to
mark search-engine hosts dead and resurrect them.

# States

- Closed: host is alive, requests pass through
- Open: host is dead, requests are refused until the cooldown expires
- Half-Open: one probe request is let through; success closes the circuit,
  failure opens it again with a doubled cooldown

# Usage

	breaker := resilience.New("localhost:9200", resilience.Settings{
		FailureThreshold: 1,
		Cooldown:         60 * time.Second,
	})

	if err := breaker.Allow(); err != nil {
		return err // host is dead
	}
	switch err := ping(ctx, host); {
	case ctx.Err() != nil:
		breaker.Release() // abandoned, no verdict on the host
	case err != nil:
		breaker.Failure()
	default:
		breaker.Success()
	}
*/
package resilience
