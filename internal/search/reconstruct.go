package search

import (
	"fmt"

	"github.com/udisondev/navroute/internal/snapshot"
)

// maxChainDepth bounds chain-link expansion at reconstruction time to
// a depth of 32, guarding against a cyclic chain descriptor the
// build-time check should have rejected.
const maxChainDepth = 32

// TileCoord is one world-coordinate waypoint in a reconstructed tile
// path.
type TileCoord struct {
	X, Y  int32
	Plane int8
}

// Action is one typed reconstruction step.
type Action struct {
	Type                string
	CostMs              uint32
	To                  snapshot.Bounds
	InteractionTargetID uint32
	Hint                string
}

var kindToActionType = map[uint8]string{
	snapshot.KindDoor:      "door",
	snapshot.KindLodestone: "lodestone",
	snapshot.KindObject:    "object",
	snapshot.KindNPC:       "npc",
	snapshot.KindIfSlot:    "ifslot",
	snapshot.KindItem:      "item",
	snapshot.KindSurge:     "surge",
	snapshot.KindDive:      "dive",
}

// Reconstruct walks ctx.parent/pedge backward from goal to start and
// produces the tile path and typed action list. ctx must be the same
// Context Search(start, goal, ...) just populated
// and must not have been reset since. The path/edge chain is bounded by
// g.NodeCount+1 hops as a defensive guard against a corrupt parent
// chain; a well-formed search never visits a node twice in a backward
// walk.
func Reconstruct(g *snapshot.Graph, ctx *Context, start, goal uint32, returnGeometry bool) (path []TileCoord, actions []Action, err error) {
	if start == goal {
		if returnGeometry {
			path = []TileCoord{tileAt(g, start)}
		}
		return path, nil, nil
	}

	type hop struct {
		node uint32
		edge edgeRef
	}
	var hops []hop
	maxHops := int(g.NodeCount) + 1
	node := goal
	for node != start {
		if len(hops) > maxHops {
			return nil, nil, fmt.Errorf("search: parent chain exceeds node count, corrupt context")
		}
		if ctx.genAt[node] != ctx.gen {
			return nil, nil, fmt.Errorf("search: node %d has no parent in this search", node)
		}
		edge := ctx.pedge[node]
		hops = append(hops, hop{node: node, edge: edge})
		parent := ctx.parent[node]
		if parent == snapshot.InvalidNode {
			return nil, nil, fmt.Errorf("search: reached start of chain without finding start node")
		}
		node = parent
	}

	// hops is goal-to-start; walk it in reverse (start-to-goal) to build
	// path/actions in traversal order.
	if returnGeometry {
		path = append(path, tileAt(g, start))
	}

	for idx := len(hops) - 1; idx >= 0; idx-- {
		h := hops[idx]
		switch h.edge.kind {
		case edgeMove:
			if returnGeometry {
				path = append(path, tileAt(g, h.node))
			}
			actions = append(actions, Action{
				Type:   "move",
				CostMs: h.edge.cost,
				To:     pointBounds(g, h.node),
			})
		case edgeSpecial:
			e := g.SpecialEdges[h.edge.index]
			if returnGeometry {
				path = append(path, tileAt(g, h.node))
			}
			expanded, err := expandEdgeActions(g, e, h.edge.cost)
			if err != nil {
				return nil, nil, err
			}
			actions = append(actions, expanded...)
		case edgeGlobal:
			e := g.GlobalEdges[h.edge.index]
			if returnGeometry {
				path = append(path, tileAt(g, h.node))
			}
			head, err := headAction(g, e.ActionBlobID, h.edge.cost, 0)
			if err != nil {
				return nil, nil, err
			}
			actions = append(actions, head)
		}
	}

	return path, actions, nil
}

// expandEdgeActions produces the action(s) for one traversed special
// edge: a single head action, or a head action followed by every
// chain link when the edge has chain_head_id set.
func expandEdgeActions(g *snapshot.Graph, e snapshot.SpecialEdge, edgeCost uint32) ([]Action, error) {
	if e.ChainHeadID == 0 {
		head, err := headAction(g, e.ActionBlobID, edgeCost, e.Kind)
		if err != nil {
			return nil, err
		}
		return []Action{head}, nil
	}

	blob, err := g.ActionBlobs.Get(e.ChainHeadID)
	if err != nil {
		return nil, err
	}
	if len(blob.Chain) > maxChainDepth {
		return nil, fmt.Errorf("search: chain %d exceeds max depth %d", e.ChainHeadID, maxChainDepth)
	}

	var linkCost uint32
	for _, link := range blob.Chain {
		linkCost += link.CostMs
	}
	if linkCost > edgeCost {
		return nil, fmt.Errorf("search: chain %d link costs (%d) exceed edge cost (%d)", e.ChainHeadID, linkCost, edgeCost)
	}

	out := make([]Action, 0, 1+len(blob.Chain))
	out = append(out, Action{
		Type:                kindOf(e.Kind, blob.Head.Kind),
		CostMs:              edgeCost - linkCost,
		To:                  blob.Head.Dest,
		InteractionTargetID: blob.Head.InteractionTargetID,
		Hint:                blob.Head.Hint,
	})
	for _, link := range blob.Chain {
		out = append(out, Action{
			Type:                kindOf(0, link.Kind),
			CostMs:              link.CostMs,
			To:                  link.Dest,
			InteractionTargetID: link.InteractionTargetID,
			Hint:                link.Hint,
		})
	}
	return out, nil
}

func headAction(g *snapshot.Graph, actionBlobID uint32, edgeCost uint32, edgeKind uint8) (Action, error) {
	if actionBlobID == 0 {
		return Action{Type: kindOf(edgeKind, 0), CostMs: edgeCost}, nil
	}
	blob, err := g.ActionBlobs.Get(actionBlobID)
	if err != nil {
		return Action{}, err
	}
	return Action{
		Type:                kindOf(edgeKind, blob.Head.Kind),
		CostMs:              edgeCost,
		To:                  blob.Head.Dest,
		InteractionTargetID: blob.Head.InteractionTargetID,
		Hint:                blob.Head.Hint,
	}, nil
}

// kindOf prefers the edge's own kind byte (movement/special/global edge
// kinds are authoritative); it falls back to the action blob's kind
// when the edge doesn't carry one (global edges have none).
func kindOf(edgeKind, blobKind uint8) string {
	if t, ok := kindToActionType[edgeKind]; ok {
		return t
	}
	if t, ok := kindToActionType[blobKind]; ok {
		return t
	}
	return "object"
}

func tileAt(g *snapshot.Graph, node uint32) TileCoord {
	return TileCoord{X: g.X[node], Y: g.Y[node], Plane: g.Plane[node]}
}

func pointBounds(g *snapshot.Graph, node uint32) snapshot.Bounds {
	x, y, p := g.X[node], g.Y[node], int32(g.Plane[node])
	return snapshot.Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y, Plane: p}
}

// TotalCost sums the reconstructed actions' cost, for the cost-identity
// property: response.cost_ms == sum(action.cost_ms).
func TotalCost(actions []Action) uint32 {
	var total uint32
	for _, a := range actions {
		total += a.CostMs
	}
	return total
}
