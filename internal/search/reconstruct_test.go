package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navroute/internal/snapshot"
)

func TestReconstructTilePathMatchesActionCount(t *testing.T) {
	g := gridGraph(5, 1, 600, 848)
	ctx := newContext(g.NodeCount)

	outcome, err := Search(ctx, g, 0, 4, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusOK, outcome.Status)

	path, actions, err := Reconstruct(g, ctx, 0, 4, true)
	require.NoError(t, err)
	assert.Len(t, path, 5) // start + 4 move steps
	assert.Len(t, actions, 4)
	for _, a := range actions {
		assert.Equal(t, "move", a.Type)
		assert.EqualValues(t, 600, a.CostMs)
	}
	assert.EqualValues(t, outcome.CostMs, TotalCost(actions))
}

func TestReconstructSameTileEmptyActions(t *testing.T) {
	g := gridGraph(3, 3, 600, 848)
	ctx := newContext(g.NodeCount)

	_, err := Search(ctx, g, 4, 4, Options{})
	require.NoError(t, err)

	path, actions, err := Reconstruct(g, ctx, 4, 4, true)
	require.NoError(t, err)
	assert.Len(t, path, 1)
	assert.Empty(t, actions)
}

func TestReconstructWithoutGeometryOmitsPath(t *testing.T) {
	g := gridGraph(5, 1, 600, 848)
	ctx := newContext(g.NodeCount)

	_, err := Search(ctx, g, 0, 4, Options{})
	require.NoError(t, err)

	path, actions, err := Reconstruct(g, ctx, 0, 4, false)
	require.NoError(t, err)
	assert.Nil(t, path)
	assert.Len(t, actions, 4)
}

func TestReconstructChainActionSplitsCostAcrossLinks(t *testing.T) {
	g := gridGraph(4, 1, 600, 848)
	rows := make([]uint32, g.NodeCount+1)
	for i := uint32(0); i <= g.NodeCount; i++ {
		if i == 0 {
			rows[i] = 0
		} else {
			rows[i] = 1
		}
	}
	g.SpecialRows = rows
	g.SpecialEdges = []snapshot.SpecialEdge{
		{Dst: 3, Cost: 500, Kind: snapshot.KindDoor, ChainHeadID: 1},
	}
	g.ActionBlobs = buildChainBlob(
		chainLink{kind: snapshot.KindDoor},
		[]chainLink{
			{kind: snapshot.KindObject, costMs: 150},
			{kind: snapshot.KindItem, costMs: 100},
		},
	)

	ctx := newContext(g.NodeCount)
	outcome, err := Search(ctx, g, 0, 3, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusOK, outcome.Status)

	_, actions, err := Reconstruct(g, ctx, 0, 3, false)
	require.NoError(t, err)
	require.Len(t, actions, 3)

	assert.Equal(t, "door", actions[0].Type)
	assert.EqualValues(t, 250, actions[0].CostMs) // 500 edge cost - (150+100) link cost
	assert.Equal(t, "object", actions[1].Type)
	assert.EqualValues(t, 150, actions[1].CostMs)
	assert.Equal(t, "item", actions[2].Type)
	assert.EqualValues(t, 100, actions[2].CostMs)

	assert.EqualValues(t, outcome.CostMs, TotalCost(actions))
	assert.EqualValues(t, 500, TotalCost(actions))
}

func TestReconstructDoorAction(t *testing.T) {
	g := gridGraph(4, 1, 600, 848)
	rows := make([]uint32, g.NodeCount+1)
	for i := uint32(0); i <= g.NodeCount; i++ {
		if i <= 1 {
			rows[i] = 0
		} else {
			rows[i] = 1
		}
	}
	g.SpecialRows = rows
	g.SpecialEdges = []snapshot.SpecialEdge{
		{Dst: 3, Cost: 50, Kind: snapshot.KindDoor},
	}

	ctx := newContext(g.NodeCount)
	outcome, err := Search(ctx, g, 0, 3, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusOK, outcome.Status)

	_, actions, err := Reconstruct(g, ctx, 0, 3, false)
	require.NoError(t, err)
	require.NotEmpty(t, actions)
	last := actions[len(actions)-1]
	assert.Equal(t, "door", last.Type)
	assert.EqualValues(t, 50, last.CostMs)
}
