package profiler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
	"github.com/GriffinCanCode/elasticbundle/internal/shared/id"
)

// DefaultCapacity bounds a store built with a non-positive capacity
const DefaultCapacity = 100

// Store keeps the most recent profiles, bounded by count and age, and
// fans new profile summaries out to subscribers.
type Store struct {
	cache   *ttlcache.Cache[id.Token, *Profile]
	metrics *monitoring.Metrics
	logger  *logging.Logger
	ttl     time.Duration

	stopEviction func()

	mu     sync.Mutex
	subs   map[uint64]chan Summary
	nextID uint64
	closed bool
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStoreMetrics counts stored and evicted profiles
func WithStoreMetrics(m *monitoring.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithStoreLogger sets the logger
func WithStoreLogger(l *logging.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store holding at most capacity profiles, each for at
// most ttl. A zero ttl keeps profiles until they are pushed out.
func NewStore(capacity int, ttl time.Duration, opts ...StoreOption) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	s := &Store{
		logger: logging.NewNop(),
		ttl:    ttl,
		subs:   make(map[uint64]chan Summary),
	}
	for _, opt := range opts {
		opt(s)
	}

	cacheOpts := []ttlcache.Option[id.Token, *Profile]{
		ttlcache.WithCapacity[id.Token, *Profile](uint64(capacity)),
		ttlcache.WithDisableTouchOnHit[id.Token, *Profile](),
	}
	if ttl > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithTTL[id.Token, *Profile](ttl))
	}
	s.cache = ttlcache.New[id.Token, *Profile](cacheOpts...)
	s.stopEviction = s.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[id.Token, *Profile]) {
		if reason == ttlcache.EvictionReasonDeleted {
			return
		}
		s.metrics.RecordProfileEvicted()
		s.logger.Debug("profile evicted", zap.String("token", item.Key().String()))
	})
	return s
}

// Add stores p and notifies subscribers. Expired profiles are dropped on
// the way.
func (s *Store) Add(p *Profile) {
	if s.ttl > 0 {
		s.cache.DeleteExpired()
	}
	s.cache.Set(p.Token, p, ttlcache.DefaultTTL)
	s.metrics.RecordProfileStored()
	s.broadcast(p.Summary())
}

// Get returns the profile stored under token
func (s *Store) Get(token id.Token) (Profile, bool) {
	item := s.cache.Get(token)
	if item == nil {
		return Profile{}, false
	}
	return *item.Value(), true
}

// Recent returns up to limit summaries, newest first. A non-positive limit
// returns everything.
func (s *Store) Recent(limit int) []Summary {
	items := s.cache.Items()
	out := make([]Summary, 0, len(items))
	for _, item := range items {
		out = append(out, item.Value().Summary())
	}

	// tokens are ULIDs, so they order by creation time
	sort.Slice(out, func(i, j int) bool { return out[i].Token > out[j].Token })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of stored profiles
func (s *Store) Len() int {
	return len(s.cache.Items())
}

// Subscribe returns a channel receiving the summary of every profile added
// from now on. Slow subscribers miss summaries instead of blocking Add.
func (s *Store) Subscribe(buffer int) (<-chan Summary, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Summary, buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	subID := s.nextID
	s.nextID++
	s.subs[subID] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[subID]; ok {
				delete(s.subs, subID)
				close(sub)
			}
		})
	}
}

func (s *Store) broadcast(summary Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for subID, ch := range s.subs {
		select {
		case ch <- summary:
		default:
			s.logger.Debug("subscriber lagging, summary dropped", zap.Uint64("subscriber", subID))
		}
	}
}

// Close closes every subscription
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for subID, ch := range s.subs {
		delete(s.subs, subID)
		close(ch)
	}
	s.mu.Unlock()

	s.stopEviction()
}
