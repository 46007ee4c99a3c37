package search

import "github.com/udisondev/navroute/internal/snapshot"

// gateJPS reports whether node i is eligible for Jump-Point-style
// pruning at all. Pruning is valid only where movement is uniform-grid
// and nothing else can fire from the node — the search start (global
// edges only fire there) and any node carrying special edges fall back
// to unpruned expansion.
func gateJPS(g *snapshot.Graph, i uint32, isStart bool) bool {
	if isStart {
		return false
	}
	return !g.HasSpecialEdges(i)
}

// successorDirections returns the subset of set directions in mask
// that a JPS-pruned expansion should actually enumerate, given the
// direction the search arrived from (parentDir; -1 if none, in which
// case every set direction is returned unpruned).
//
// Forced-neighbor detection here is a simplified rule rather than the
// classical one: after a cardinal arrival it keeps the straight
// direction plus the diagonal beside each missing perpendicular
// neighbor; after a diagonal arrival it keeps the diagonal, both of its
// cardinal components, and the diagonal beyond each missing component.
func successorDirections(mask uint8, parentDir int) []int {
	if parentDir < 0 {
		return setDirs(mask)
	}

	var keep [8]bool
	add := func(d int) {
		if mask&(1<<uint(d)) != 0 {
			keep[d] = true
		}
	}

	if snapshot.IsDiagonal(parentDir) {
		a := (parentDir + 7) % 8 // first cardinal component
		b := (parentDir + 1) % 8 // second cardinal component
		add(parentDir)
		add(a)
		add(b)
		if mask&(1<<uint(a)) == 0 {
			add((a + 7) % 8)
		}
		if mask&(1<<uint(b)) == 0 {
			add((b + 1) % 8)
		}
	} else {
		add(parentDir)
		left := (parentDir + 6) % 8
		right := (parentDir + 2) % 8
		if mask&(1<<uint(left)) == 0 {
			add((parentDir + 7) % 8)
		}
		if mask&(1<<uint(right)) == 0 {
			add((parentDir + 1) % 8)
		}
	}

	out := make([]int, 0, 4)
	for d := 0; d < 8; d++ {
		if keep[d] {
			out = append(out, d)
		}
	}
	return out
}

func setDirs(mask uint8) []int {
	out := make([]int, 0, 8)
	for d := 0; d < 8; d++ {
		if mask&(1<<uint(d)) != 0 {
			out = append(out, d)
		}
	}
	return out
}
