package sse

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamgateapp/streamgate/internal/callback"
)

func newTestConnection(token string) *Connection {
	return NewConnection(token, callback.RequestInfo{URL: "/sse/test"}, newFakeStream())
}

func TestRegistry_AddGet(t *testing.T) {
	r := NewRegistry()
	conn := newTestConnection("tok-1")

	require.NoError(t, r.Add("tok-1", conn))

	got, ok := r.Get("tok-1")
	require.True(t, ok)
	assert.Same(t, conn, got)

	assert.True(t, r.Has("tok-1"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_AddDuplicateFails(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Add("tok-1", newTestConnection("tok-1")))
	assert.Error(t, r.Add("tok-1", newTestConnection("tok-1")))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("tok-1", newTestConnection("tok-1")))

	// First removal wins; every retry observes absence.
	assert.True(t, r.Remove("tok-1"))
	assert.False(t, r.Remove("tok-1"))
	assert.False(t, r.Remove("tok-1"))

	assert.False(t, r.Has("tok-1"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Remove("never-added"))
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("nope")
	assert.False(t, ok)
}

// Registry size always equals inserted-minus-removed, no matter the
// interleaving.
func TestRegistry_SizeMatchesMembership(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 10; i++ {
		token := fmt.Sprintf("tok-%d", i)
		require.NoError(t, r.Add(token, newTestConnection(token)))
	}
	assert.Equal(t, 10, r.Len())

	for i := 0; i < 10; i += 2 {
		assert.True(t, r.Remove(fmt.Sprintf("tok-%d", i)))
	}
	assert.Equal(t, 5, r.Len())

	seen := 0
	for conn := range r.All() {
		assert.True(t, r.Has(conn.Token()))
		seen++
	}
	assert.Equal(t, 5, seen)
}

func TestRegistry_ConcurrentAddRemove(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			token := fmt.Sprintf("tok-%d", n)
			_ = r.Add(token, newTestConnection(token))
			if n%2 == 0 {
				r.Remove(token)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, r.Len())
}
