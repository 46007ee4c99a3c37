package snapshot

import "github.com/udisondev/navroute/internal/requirement"

// Direction bit indices for movement_mask: one bit per cardinal and
// diagonal direction (N, NE, E, SE, S, SW, W, NW).
const (
	DirN = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
	DirCount
)

// DirDX / DirDY give the coordinate delta for each direction, using a
// world frame where +X is east and +Y is north.
var (
	DirDX = [DirCount]int32{0, 1, 1, 1, 0, -1, -1, -1}
	DirDY = [DirCount]int32{1, 1, 0, -1, -1, -1, 0, 1}
)

// IsDiagonal reports whether direction d is a diagonal step.
func IsDiagonal(d int) bool { return d%2 == 1 }

// MovementEdge is one explicit grid-step edge in the movement CSR.
type MovementEdge struct {
	Dst  uint32
	Cost uint16
}

// SpecialEdge is one gated, non-movement transition (door, teleport,
// object/NPC/ifslot/item interaction, or chain head).
type SpecialEdge struct {
	Dst               uint32
	Cost              uint32
	Kind              uint8
	RequirementMaskID uint32
	ActionBlobID      uint32
	ChainHeadID       uint32 // 0 if this edge is a single-step special
}

// GlobalEdge is a special edge usable only from the query's start node
// (e.g. world-wide lodestones).
type GlobalEdge struct {
	Dst               uint32
	Cost              uint32
	RequirementMaskID uint32
	ActionBlobID      uint32
}

// Special edge kinds, mirrored in Action.Type for reconstruction.
const (
	KindDoor      uint8 = 1
	KindLodestone uint8 = 2
	KindObject    uint8 = 3
	KindNPC       uint8 = 4
	KindIfSlot    uint8 = 5
	KindItem      uint8 = 6
	KindSurge     uint8 = 7
	KindDive      uint8 = 8
)

// Graph is the memory-resident, read-only snapshot view. MovementMask,
// TeleportGroup and the action blob bytes are borrowed directly over
// the memory-mapped file; the coordinate, plane, CSR, global-edge,
// landmark, predicate and requirement-mask arrays are decoded into
// freshly allocated slices during Open.
type Graph struct {
	NodeCount      uint32
	LandmarkCount  uint32
	PredicateCount uint32
	Flags          uint32

	X, Y  []int32
	Plane []int8

	MovementMask  []uint8
	TeleportGroup []uint8 // empty slice if the snapshot omits it

	MovementRows  []uint32 // len = NodeCount+1
	MovementEdges []MovementEdge

	SpecialRows  []uint32 // len = NodeCount+1
	SpecialEdges []SpecialEdge

	GlobalEdges []GlobalEdge

	// Landmarks is node-major: Landmarks[i*K+k] = d(L_k, node_i).
	Landmarks []uint32

	ActionBlobs *ActionBlobTable

	Predicates       []requirement.Predicate
	RequirementMasks *requirement.MaskTable

	Metadata map[string]string

	BaseStepCostMs     uint32
	BaseDiagonalCostMs uint32

	raw []byte // backing buffer (mmap or in-memory); kept to control lifetime
}

// HasGlobalEdges reports whether the snapshot carries global (start-only)
// edges.
func (g *Graph) HasGlobalEdges() bool { return g.Flags&FlagHasGlobalEdges != 0 }

// HasResourceEdges reports whether cooldown-gated resource families
// (surge/dive) are present in this snapshot's predicate/edge space.
func (g *Graph) HasResourceEdges() bool { return g.Flags&FlagHasResourceEdges != 0 }

// MovementNeighbors iterates the set bits of node i's movement_mask,
// invoking fn(direction, dstNodeID, cost) for each. It walks the
// movement CSR row for node i in parallel with the mask so that cost
// lookup stays O(1) per set bit, using the mask only to decide which
// CSR slots are present (the mask and CSR are built in lockstep by the
// offline builder).
func (g *Graph) MovementNeighbors(i uint32, fn func(dir int, dst uint32, cost uint16)) {
	row := g.MovementRows[i]
	end := g.MovementRows[i+1]
	edges := g.MovementEdges[row:end]
	mask := g.MovementMask[i]
	j := 0
	for d := 0; d < DirCount; d++ {
		if mask&(1<<d) == 0 {
			continue
		}
		if j >= len(edges) {
			break // defensive: malformed snapshot, mask/CSR mismatch
		}
		e := edges[j]
		fn(d, e.Dst, e.Cost)
		j++
	}
}

// SpecialNeighbors iterates node i's special-edge CSR row.
func (g *Graph) SpecialNeighbors(i uint32, fn func(idx int, e SpecialEdge)) {
	row := g.SpecialRows[i]
	end := g.SpecialRows[i+1]
	for idx, e := range g.SpecialEdges[row:end] {
		fn(idx, e)
	}
}

// HasSpecialEdges reports whether node i has any outgoing special edge.
// The JPS gate expands such nodes without pruning rather than risk
// skipping a reachable special transition.
func (g *Graph) HasSpecialEdges(i uint32) bool {
	return g.SpecialRows[i+1] > g.SpecialRows[i]
}

// LandmarkDistance returns d(L_k, node) from the node-major landmark
// table.
func (g *Graph) LandmarkDistance(node uint32, k uint32) uint32 {
	return g.Landmarks[uint64(node)*uint64(g.LandmarkCount)+uint64(k)]
}
