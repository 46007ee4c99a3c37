package search

import "github.com/udisondev/navroute/internal/snapshot"

// heuristic computes an admissible lower bound on remaining cost:
//
//	h(n) = max( octile(n, goal) * step_cost, max_k |d(L_k, n) - d(L_k, goal)| )
//
// Both terms are admissible over the movement subgraph; the ALT term
// additionally covers special edges because landmark distances were
// computed over the full directed graph at build time.
func heuristic(g *snapshot.Graph, n, goal uint32) uint32 {
	oct := octile(g, n, goal)
	alt := altBound(g, n, goal)
	if alt > oct {
		return alt
	}
	return oct
}

// octile returns the standard 8-direction grid-distance lower bound
// over (x,y), scaled by the snapshot's base step/diagonal costs. It
// ignores plane entirely; that's still admissible here because any
// cross-plane move goes through a special edge, and the ALT term in
// heuristic covers those (landmark distances are computed over the
// full directed graph, special edges included).
func octile(g *snapshot.Graph, n, goal uint32) uint32 {
	dx := abs32(g.X[n] - g.X[goal])
	dy := abs32(g.Y[n] - g.Y[goal])
	if dx < dy {
		dx, dy = dy, dx
	}
	diagonal := uint64(dy)
	straight := uint64(dx - dy)
	cost := diagonal*uint64(g.BaseDiagonalCostMs) + straight*uint64(g.BaseStepCostMs)
	if cost > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(cost)
}

// altBound returns max_k |d(L_k, n) - d(L_k, goal)| over every
// landmark in the snapshot.
func altBound(g *snapshot.Graph, n, goal uint32) uint32 {
	var best uint32
	for k := uint32(0); k < g.LandmarkCount; k++ {
		dn := g.LandmarkDistance(n, k)
		dg := g.LandmarkDistance(goal, k)
		var diff uint32
		if dn > dg {
			diff = dn - dg
		} else {
			diff = dg - dn
		}
		if diff > best {
			best = diff
		}
	}
	return best
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
