package collector

import "context"

// Observer receives call-completion events from instrumented clients.
type Observer interface {
	OnCallCompleted(ev Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ev Event)

// OnCallCompleted implements Observer.
func (f ObserverFunc) OnCallCompleted(ev Event) { f(ev) }

type observerKey struct{}

// NewContext returns a context carrying obs. Clients prefer the context's
// observer over their injected one, which lets a request lifecycle owner
// route calls to the collector of the request being served.
func NewContext(ctx context.Context, obs Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, obs)
}

// FromContext returns the observer stored by NewContext, if any.
func FromContext(ctx context.Context) (Observer, bool) {
	if ctx == nil {
		return nil, false
	}
	obs, ok := ctx.Value(observerKey{}).(Observer)
	return obs, ok && obs != nil
}
