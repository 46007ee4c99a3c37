package search

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navroute/internal/snapshot"
)

func nodeAt(g *snapshot.Graph, x, y int) uint32 {
	for i := uint32(0); i < g.NodeCount; i++ {
		if g.X[i] == int32(x) && g.Y[i] == int32(y) {
			return i
		}
	}
	return snapshot.InvalidNode
}

func TestSearchStraightLine(t *testing.T) {
	g := gridGraph(5, 1, 600, 848)
	ctx := newContext(g.NodeCount)

	outcome, err := Search(ctx, g, 0, 4, Options{Weight: 1.0})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, outcome.Status)
	assert.EqualValues(t, 4*600, outcome.CostMs)
}

func TestSearchDiagonalShortcut(t *testing.T) {
	g := gridGraph(5, 5, 600, 848)
	ctx := newContext(g.NodeCount)

	// (0,0) -> (4,4): the pure-diagonal path costs 4*848, strictly
	// cheaper than any path built only from cardinal steps (8*600).
	outcome, err := Search(ctx, g, 0, nodeAt(g, 4, 4), Options{Weight: 1.0})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, outcome.Status)
	assert.EqualValues(t, 4*848, outcome.CostMs)
}

func TestSearchSameTileShortCircuit(t *testing.T) {
	g := gridGraph(3, 3, 600, 848)
	ctx := newContext(g.NodeCount)

	outcome, err := Search(ctx, g, 4, 4, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, outcome.Status)
	assert.EqualValues(t, 0, outcome.CostMs)
}

func TestSearchUnreachable(t *testing.T) {
	g := gridGraph(3, 1, 600, 848)
	// Sever movement out of node 1 entirely, isolating node 2 from node 0.
	g.MovementMask[1] = 0
	g.MovementRows[2] = g.MovementRows[1]

	ctx := newContext(g.NodeCount)
	outcome, err := Search(ctx, g, 0, 2, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusUnreachable, outcome.Status)
}

func TestSearchExpansionLimit(t *testing.T) {
	g := gridGraph(20, 1, 600, 848)
	ctx := newContext(g.NodeCount)

	outcome, err := Search(ctx, g, 0, 19, Options{MaxExpansions: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusExpansionLimit, outcome.Status)
}

func TestSearchCancelled(t *testing.T) {
	g := gridGraph(10, 1, 600, 848)
	ctx := newContext(g.NodeCount)

	var cancel atomic.Bool
	cancel.Store(true)
	outcome, err := Search(ctx, g, 0, 9, Options{Cancel: &cancel})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, outcome.Status)
}

func TestSearchDeterministic(t *testing.T) {
	g := gridGraph(8, 8, 600, 848)
	start, goal := uint32(0), nodeAt(g, 7, 7)

	ctx1 := newContext(g.NodeCount)
	out1, err := Search(ctx1, g, start, goal, Options{Weight: 1.0})
	require.NoError(t, err)

	ctx2 := newContext(g.NodeCount)
	out2, err := Search(ctx2, g, start, goal, Options{Weight: 1.0})
	require.NoError(t, err)

	assert.Equal(t, out1.CostMs, out2.CostMs)
	assert.Equal(t, out1.Expanded, out2.Expanded)
}

func TestSearchWeightedNeverCheaper(t *testing.T) {
	g := gridGraph(10, 10, 600, 848)
	start, goal := uint32(0), nodeAt(g, 9, 9)

	ctxA := newContext(g.NodeCount)
	optimal, err := Search(ctxA, g, start, goal, Options{Weight: 1.0})
	require.NoError(t, err)

	ctxB := newContext(g.NodeCount)
	weighted, err := Search(ctxB, g, start, goal, Options{Weight: 1.5})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, weighted.CostMs, optimal.CostMs)
}

func TestSearchPoolReuseAcrossQueries(t *testing.T) {
	g := gridGraph(4, 4, 600, 848)
	pool := NewPool(g.NodeCount, 2)

	sctx, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	_, err = Search(sctx, g, 0, nodeAt(g, 3, 3), Options{})
	require.NoError(t, err)
	pool.Release(sctx)

	sctx2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	outcome, err := Search(sctx2, g, 0, nodeAt(g, 2, 1), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, outcome.Status)
	pool.Release(sctx2)
}
