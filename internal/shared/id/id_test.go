package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedIDs(t *testing.T) {
	req := NewRequestID()
	assert.True(t, strings.HasPrefix(req.String(), RequestPrefix+"_"))
	assert.True(t, IsValid(req.String()))

	tok := NewToken()
	assert.True(t, strings.HasPrefix(tok.String(), TokenPrefix+"_"))
	assert.True(t, IsValid(tok.String()))
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	tok := NewToken()

	ts, err := Timestamp(tok.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Timestamp("prof_not-a-ulid")
	assert.Error(t, err)
	assert.False(t, IsValid(""))
}

func TestGeneratorIsMonotonic(t *testing.T) {
	g := NewGenerator()

	prev := g.Generate()
	for i := 0; i < 1000; i++ {
		next := g.Generate()
		require.Equal(t, 1, next.Compare(prev), "ULIDs must increase")
		prev = next
	}
}

func TestGeneratorConcurrentUniqueness(t *testing.T) {
	const workers = 10
	const perWorker = 200

	var (
		mu   sync.Mutex
		seen = make(map[Token]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tok := NewToken()
				mu.Lock()
				seen[tok] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
