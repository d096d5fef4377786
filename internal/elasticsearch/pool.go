package elasticsearch

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/config"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/resilience"
)

var (
	// ErrNoHosts is returned when a client is built without hosts.
	ErrNoHosts = errors.New("elasticsearch: no hosts configured")

	// ErrAllHostsDead is returned when every node of a static pool is
	// marked dead and none is due for a resurrection probe.
	ErrAllHostsDead = errors.New("elasticsearch: all hosts are dead")
)

// Node is a host plus its health tracking. Simple pools leave the breaker nil.
type Node struct {
	Host    Host
	index   int
	breaker *resilience.Breaker
}

// Alive reports whether the node may be tried.
func (n *Node) Alive() bool {
	return n.breaker == nil || n.breaker.State() != resilience.StateOpen
}

// State returns the node health as a string.
func (n *Node) State() string {
	if n.breaker == nil {
		return "untracked"
	}
	switch n.breaker.State() {
	case resilience.StateOpen:
		return "dead"
	case resilience.StateHalfOpen:
		return "probing"
	default:
		return "alive"
	}
}

// NodeStats is a point-in-time view of a node's health.
type NodeStats struct {
	State    string `json:"state"`
	Requests uint32 `json:"requests"`
	Failures uint32 `json:"failures"`
	// DeadUntil is when a dead node gets its resurrection probe.
	DeadUntil *time.Time `json:"dead_until,omitempty"`
}

// Stats returns the node's health counters. Simple pools track nothing.
func (n *Node) Stats() NodeStats {
	if n.breaker == nil {
		return NodeStats{State: n.State()}
	}
	counts := n.breaker.Counts()
	stats := NodeStats{
		State:    n.State(),
		Requests: counts.Requests,
		Failures: counts.TotalFailures,
	}
	if stats.State == "dead" {
		until := n.breaker.ReopenAt()
		stats.DeadUntil = &until
	}
	return stats
}

func (n *Node) acquire() error {
	if n.breaker == nil {
		return nil
	}
	return n.breaker.Allow()
}

func (n *Node) success() {
	if n.breaker != nil {
		n.breaker.Success()
	}
}

func (n *Node) failure() {
	if n.breaker != nil {
		n.breaker.Failure()
	}
}

// release frees a slot taken by acquire when the attempt was abandoned.
func (n *Node) release() {
	if n.breaker != nil {
		n.breaker.Release()
	}
}

// Selector picks one node among the candidates. Candidates are never empty
// and keep the configured host order.
type Selector interface {
	Select(candidates []*Node) *Node
}

// RoundRobinSelector cycles through the candidates.
type RoundRobinSelector struct {
	next atomic.Uint64
}

func (s *RoundRobinSelector) Select(candidates []*Node) *Node {
	i := s.next.Add(1) - 1
	return candidates[i%uint64(len(candidates))]
}

// RandomSelector picks uniformly.
type RandomSelector struct{}

func (RandomSelector) Select(candidates []*Node) *Node {
	return candidates[rand.IntN(len(candidates))]
}

// StickySelector keeps using the same node until it drops out of the
// candidates, then moves on to the next one in host order.
type StickySelector struct {
	mu      sync.Mutex
	current int
	started bool
}

func (s *StickySelector) Select(candidates []*Node) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.started = true
		s.current = candidates[0].index
		return candidates[0]
	}
	for _, n := range candidates {
		if n.index == s.current {
			return n
		}
	}
	for _, n := range candidates {
		if n.index > s.current {
			s.current = n.index
			return n
		}
	}
	s.current = candidates[0].index
	return candidates[0]
}

// NewSelector builds the selector named by kind.
func NewSelector(kind string) (Selector, error) {
	switch kind {
	case config.SelectorRoundRobin, "":
		return &RoundRobinSelector{}, nil
	case config.SelectorRandom:
		return RandomSelector{}, nil
	case config.SelectorSticky:
		return &StickySelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selector %q", kind)
	}
}

// Pool hands out nodes for each attempt.
type Pool struct {
	nodes    []*Node
	selector Selector
	tracked  bool
}

// NewPool builds a pool. The static kind tracks node health with a breaker
// per host; the simple kind always returns a node.
func NewPool(kind string, hosts []Host, selector Selector, settings resilience.Settings) (*Pool, error) {
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}

	p := &Pool{selector: selector, nodes: make([]*Node, len(hosts))}
	switch kind {
	case config.PoolStatic, "":
		p.tracked = true
	case config.PoolSimple:
	default:
		return nil, fmt.Errorf("unknown connection pool %q", kind)
	}

	for i, h := range hosts {
		n := &Node{Host: h, index: i}
		if p.tracked {
			n.breaker = resilience.New(h.String(), settings)
		}
		p.nodes[i] = n
	}
	return p, nil
}

// Next returns a node for the next attempt.
func (p *Pool) Next() (*Node, error) {
	candidates := make([]*Node, 0, len(p.nodes))
	for _, n := range p.nodes {
		if n.Alive() {
			candidates = append(candidates, n)
		}
	}

	for len(candidates) > 0 {
		n := p.selector.Select(candidates)
		if err := n.acquire(); err == nil {
			return n, nil
		}
		// a concurrent caller holds the resurrection probe
		candidates = without(candidates, n)
	}
	return nil, ErrAllHostsDead
}

// Nodes returns the pool's nodes in host order.
func (p *Pool) Nodes() []*Node {
	out := make([]*Node, len(p.nodes))
	copy(out, p.nodes)
	return out
}

func without(nodes []*Node, drop *Node) []*Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}
