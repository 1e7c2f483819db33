package waitfor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEmptyGraph tests that a trivial graph has no cycle
func TestEmptyGraph(t *testing.T) {
	g := New()

	assert.False(t, g.DetectCycle())

	_, ok := g.CyclePath()
	assert.False(t, ok)
	assert.Empty(t, g.Chains())
	assert.Zero(t, g.Len())
}

// TestDeadlockCycle tests the canonical two-holder deadlock:
// holder 1 waits on resource 200 held by holder 2, which waits on
// resource 100 held by holder 1
func TestDeadlockCycle(t *testing.T) {
	g := New()
	g.AddWait(1, 200)
	g.AddWait(200, 2)
	g.AddWait(2, 100)
	g.AddWait(100, 1)

	assert.True(t, g.DetectCycle())

	cycle, ok := g.CyclePath()
	require.True(t, ok)
	assert.Len(t, cycle, 4)
	assert.Equal(t, []NodeID{1, 200, 2, 100}, cycle)

	chains := g.Chains()
	require.Len(t, chains, 1)
	assert.Equal(t, "1 -> 200 -> 2 -> 100 -> 1", chains[0])
}

// TestRemovingAnyCycleEdgeBreaksIt tests edge removal against every edge of
// the cycle in turn
func TestRemovingAnyCycleEdgeBreaksIt(t *testing.T) {
	edges := []Edge{
		{1, 200},
		{200, 2},
		{2, 100},
		{100, 1},
	}

	for _, removed := range edges {
		g := New()
		for _, e := range edges {
			g.AddWait(e.From, e.To)
		}

		g.RemoveWait(removed.From, removed.To)
		assert.False(t, g.DetectCycle(), "cycle should break without edge %v", removed)
	}
}

// TestDisjointAcyclicChain tests that unrelated acyclic edges neither mask
// nor fake a cycle
func TestDisjointAcyclicChain(t *testing.T) {
	g := New()
	g.AddWait(5, 6)
	g.AddWait(6, 7)
	assert.False(t, g.DetectCycle())

	g.AddWait(1, 200)
	g.AddWait(200, 2)
	g.AddWait(2, 100)
	g.AddWait(100, 1)
	assert.True(t, g.DetectCycle())

	cycle, ok := g.CyclePath()
	require.True(t, ok)
	assert.Equal(t, []NodeID{1, 200, 2, 100}, cycle)
}

// TestAddWaitIdempotent tests that re-adding an edge leaves the graph unchanged
func TestAddWaitIdempotent(t *testing.T) {
	g := New()
	g.AddWait(1, 2)
	g.AddWait(1, 2)

	assert.Equal(t, []Edge{{1, 2}}, g.Edges())
	assert.Equal(t, 1, g.Len())

	// a single removal undoes a double add
	g.RemoveWait(1, 2)
	assert.Zero(t, g.Len())
	assert.False(t, g.DetectCycle())
}

// TestRemoveMissingEdge tests that removing an absent edge is a no-op
func TestRemoveMissingEdge(t *testing.T) {
	g := New()
	g.AddWait(1, 2)

	g.RemoveWait(2, 1)
	g.RemoveWait(9, 9)

	assert.Equal(t, []Edge{{1, 2}}, g.Edges())
}

// TestSelfWait tests that a self-edge is reported as a one-node cycle
func TestSelfWait(t *testing.T) {
	g := New()
	g.AddWait(7, 7)

	assert.True(t, g.DetectCycle())

	cycle, ok := g.CyclePath()
	require.True(t, ok)
	assert.Equal(t, []NodeID{7}, cycle)
	assert.Equal(t, []string{"7 -> 7"}, g.Chains())
}

// TestDeterministicTraversal tests that detection reports the same cycle on
// every call, per insertion order
func TestDeterministicTraversal(t *testing.T) {
	g := New()
	g.AddWait(3, 4)
	g.AddWait(4, 3)
	g.AddWait(10, 11)
	g.AddWait(11, 10)

	first, ok := g.CyclePath()
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		again, ok := g.CyclePath()
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []NodeID{3, 4}, first)
}

// TestConcurrentEdgeLifecycle exercises the mutex under concurrent add and
// remove with detection interleaved
func TestConcurrentEdgeLifecycle(t *testing.T) {
	g := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base NodeID) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				g.AddWait(base, base+1)
				_ = g.DetectCycle()
				g.RemoveWait(base, base+1)
			}
		}(NodeID(i * 10))
	}
	wg.Wait()

	assert.Zero(t, g.Len())
	assert.False(t, g.DetectCycle())
}
