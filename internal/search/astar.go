package search

import (
	"container/heap"
	"hash/fnv"
	"sync/atomic"

	"github.com/udisondev/navroute/internal/requirement"
	"github.com/udisondev/navroute/internal/snapshot"
)

// cancelCheckInterval is the expansion count between cancellation-flag
// checks in the hot loop, checked at most once per K expansions with
// K ≈ 1024, grounded on the atomic-budget-check idiom in the pack's
// query-budget helper.
const cancelCheckInterval = 1024

// jitterRangeMs bounds the deterministic seeded edge-cost jitter
// (DESIGN.md Open Question 3): each movement edge gains 0 to
// jitterRangeMs whole milliseconds. The jitter only ever adds cost, so
// it can never flip an admissible heuristic into an inadmissible one.
const jitterRangeMs = 1

// Options configures a single Search call, carrying the per-query
// pieces of a route request that the core needs.
type Options struct {
	Weight        float32 // 1.0 <= Weight <= 1.5; validated by the caller (navhttp)
	Seed          *uint64
	MaxExpansions uint32
	Surge         ResourceConfig
	Dive          ResourceConfig
	Satisfied     requirement.Bits
	Cancel        *atomic.Bool // may be nil
}

// Outcome is the result of a Search call: enough to report stats and,
// on StatusOK, to call Reconstruct against the same Context.
type Outcome struct {
	Status        Status
	CostMs        uint32
	Expanded      uint32
	HeuristicHits uint32
	Start         uint32
	Goal          uint32
}

// Search runs cooldown-augmented, ALT-accelerated A* from start to
// goal over g, using ctx as scratch memory. ctx must not be reused
// concurrently. The caller is responsible for acquiring ctx from a
// Pool and releasing it afterward.
func Search(ctx *Context, g *snapshot.Graph, start, goal uint32, opts Options) (*Outcome, error) {
	if start == goal {
		ctx.setG(start, 0)
		ctx.parent[start] = snapshot.InvalidNode
		return &Outcome{Status: StatusOK, CostMs: 0, Start: start, Goal: goal}, nil
	}

	weight := opts.Weight
	if weight < 1.0 {
		weight = 1.0
	}
	maxExpansions := opts.MaxExpansions
	if maxExpansions == 0 {
		maxExpansions = 5_000_000
	}

	ctx.setG(start, 0)
	ctx.parent[start] = snapshot.InvalidNode
	startItem := &pqItem{node: start, parentDir: -1}
	startItem.h = heuristic(g, start, goal)
	startItem.f = weightedF(0, startItem.h, weight)
	heap.Push(&ctx.heap, startItem)

	for {
		if ctx.heap.Len() == 0 {
			return &Outcome{Status: StatusUnreachable, Start: start, Goal: goal, Expanded: ctx.expanded, HeuristicHits: ctx.heuristicHits}, nil
		}

		if opts.Cancel != nil && opts.Cancel.Load() {
			return &Outcome{Status: StatusCancelled, Start: start, Goal: goal, Expanded: ctx.expanded, HeuristicHits: ctx.heuristicHits}, nil
		}

		item, ok := heap.Pop(&ctx.heap).(*pqItem)
		if !ok {
			return nil, ErrHeapUnderflow
		}
		i := item.node

		if ctx.isClosed(i) {
			continue
		}
		ctx.setClosed(i)
		ctx.expanded++

		if i == goal {
			return &Outcome{
				Status:        StatusOK,
				CostMs:        ctx.getG(i),
				Start:         start,
				Goal:          goal,
				Expanded:      ctx.expanded,
				HeuristicHits: ctx.heuristicHits,
			}, nil
		}

		if ctx.expanded >= maxExpansions {
			return &Outcome{Status: StatusExpansionLimit, Start: start, Goal: goal, Expanded: ctx.expanded, HeuristicHits: ctx.heuristicHits}, nil
		}
		if ctx.expanded%cancelCheckInterval == 0 && opts.Cancel != nil && opts.Cancel.Load() {
			return &Outcome{Status: StatusCancelled, Start: start, Goal: goal, Expanded: ctx.expanded, HeuristicHits: ctx.heuristicHits}, nil
		}

		isStart := i == start
		expandMovement(ctx, g, i, item.parentDir, isStart, goal, weight, opts)
		expandSpecial(ctx, g, i, goal, weight, opts)
		if isStart {
			expandGlobal(ctx, g, i, goal, weight, opts)
		}
	}
}

func weightedF(g, h uint32, w float32) uint32 {
	wh := float32(h) * w
	return g + uint32(wh)
}

func expandMovement(ctx *Context, g *snapshot.Graph, i uint32, parentDir int, isStart bool, goal uint32, weight float32, opts Options) {
	gi := ctx.getG(i)
	mask := g.MovementMask[i]

	var dirs []int
	if gateJPS(g, i, isStart) {
		dirs = successorDirections(mask, parentDir)
	} else {
		dirs = setDirs(mask)
	}

	row := g.MovementRows[i]
	end := g.MovementRows[i+1]
	edges := g.MovementEdges[row:end]

	// Build a direction -> edge-slot map once; the mask and CSR row are
	// built in lockstep by the offline builder, so a single pass over
	// set bits aligns slot index to direction order.
	slot := 0
	dirSlot := [8]int{-1, -1, -1, -1, -1, -1, -1, -1}
	for d := 0; d < 8; d++ {
		if mask&(1<<uint(d)) != 0 {
			dirSlot[d] = slot
			slot++
		}
	}

	for _, d := range dirs {
		s := dirSlot[d]
		if s < 0 || s >= len(edges) {
			continue
		}
		e := edges[s]
		if e.Dst >= g.NodeCount {
			continue
		}
		jittered := jitter(opts.Seed, i, e.Dst)
		cost := uint32(e.Cost) + jittered
		relax(ctx, g, i, e.Dst, gi, cost, goal, weight, edgeRef{kind: edgeMove, dir: d, cost: cost})
	}
}

func expandSpecial(ctx *Context, g *snapshot.Graph, i uint32, goal uint32, weight float32, opts Options) {
	gi := ctx.getG(i)
	row := g.SpecialRows[i]
	end := g.SpecialRows[i+1]
	for idx := row; idx < end; idx++ {
		e := g.SpecialEdges[idx]
		if !eligible(g, opts.Satisfied, e.RequirementMaskID) {
			continue
		}
		cost, next, family, ok := resourceFoldedCost(ctx, i, e.Kind, e.Cost, gi, opts)
		if !ok {
			continue
		}
		relax(ctx, g, i, e.Dst, gi, cost, goal, weight, edgeRef{kind: edgeSpecial, cost: cost, index: idx, resFamily: family, resNext: next})
	}
}

func expandGlobal(ctx *Context, g *snapshot.Graph, i uint32, goal uint32, weight float32, opts Options) {
	gi := ctx.getG(i)
	for idx, e := range g.GlobalEdges {
		if !eligible(g, opts.Satisfied, e.RequirementMaskID) {
			continue
		}
		relax(ctx, g, i, e.Dst, gi, e.Cost, goal, weight, edgeRef{kind: edgeGlobal, cost: e.Cost, index: uint32(idx)})
	}
}

func eligible(g *snapshot.Graph, satisfied requirement.Bits, maskID uint32) bool {
	required := g.RequirementMasks.Get(maskID)
	return satisfied.Subset(required)
}

// resourceFoldedCost computes the wait-folded cost of firing a
// surge/dive edge from i, and the resource state that firing it would
// install at the destination if the relaxation is accepted (spec
// §4.3). It does not mutate ctx — the caller commits resNext only once
// relax() decides the edge wins. Non-resource kinds pass cost through
// unchanged and report family 0.
func resourceFoldedCost(ctx *Context, i uint32, kind uint8, baseCost uint32, gi uint32, opts Options) (cost uint32, next resourceState, family uint8, ok bool) {
	switch kind {
	case snapshot.KindSurge:
		if !opts.Surge.Enabled {
			return 0, resourceState{}, 0, false
		}
		prior, found := ctx.surge[i]
		if !found {
			prior = initialResourceState(opts.Surge)
		}
		wait, n := fire(prior, gi, opts.Surge)
		return baseCost + wait, n, 1, true
	case snapshot.KindDive:
		if !opts.Dive.Enabled {
			return 0, resourceState{}, 0, false
		}
		prior, found := ctx.dive[i]
		if !found {
			prior = initialResourceState(opts.Dive)
		}
		wait, n := fire(prior, gi, opts.Dive)
		return baseCost + wait, n, 2, true
	default:
		return baseCost, resourceState{}, 0, true
	}
}

func relax(ctx *Context, g *snapshot.Graph, from, to uint32, gFrom, cost uint32, goal uint32, weight float32, edge edgeRef) {
	if to >= g.NodeCount {
		return
	}
	gNew := gFrom + cost
	gOld := ctx.getG(to)

	readyNew, readyOld := resourceReadyTimes(ctx, edge, to)

	if gOld != ^uint32(0) && !shouldRelax(gNew, gOld, readyNew, readyOld) {
		return
	}

	ctx.setG(to, gNew)
	ctx.parent[to] = from
	ctx.pedge[to] = edge
	commitResourceState(ctx, edge, to)
	if ctx.isClosed(to) {
		ctx.closedAt[to] = ctx.gen - 1 // reopen so the improved state is expanded again
	}

	h := heuristic(g, to, goal)
	ctx.heuristicHits++
	item := &pqItem{node: to, h: h, f: weightedF(gNew, h, weight)}
	if edge.kind == edgeMove {
		item.parentDir = edge.dir
	} else {
		item.parentDir = -1
	}
	heap.Push(&ctx.heap, item)
}

// resourceReadyTimes reports the ready_ms the controlled-revisit rule
// compares: the state a resource edge would install at its destination
// versus whatever the best-known state at that destination already is.
// Non-resource edges report equal values so shouldRelax degenerates to
// the plain g-comparison rule.
func resourceReadyTimes(ctx *Context, edge edgeRef, to uint32) (readyNew, readyOld uint32) {
	m := familyMap(ctx, edge.resFamily)
	if m == nil {
		return 0, 0
	}
	readyNew = edge.resNext.readyMs
	if prev, ok := m[to]; ok {
		readyOld = prev.readyMs
	} else {
		readyOld = ^uint32(0)
	}
	return readyNew, readyOld
}

// commitResourceState installs the resource state a winning resource
// edge computed at its destination, so later expansions from that
// destination inherit it.
func commitResourceState(ctx *Context, edge edgeRef, to uint32) {
	m := familyMap(ctx, edge.resFamily)
	if m == nil {
		return
	}
	m[to] = edge.resNext
}

func familyMap(ctx *Context, family uint8) map[uint32]resourceState {
	switch family {
	case 1:
		return ctx.surge
	case 2:
		return ctx.dive
	default:
		return nil
	}
}

// jitter returns a deterministic, admissibility-neutral per-edge
// additive cost nudge when the query supplied a seed (DESIGN.md Open
// Question 3).
func jitter(seed *uint64, src, dst uint32) uint32 {
	if seed == nil {
		return 0
	}
	h := fnv.New64a()
	var buf [16]byte
	putU64(buf[0:8], *seed)
	putU32(buf[8:12], src)
	putU32(buf[12:16], dst)
	h.Write(buf[:16])
	return uint32(h.Sum64() % uint64(jitterRangeMs+1))
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putU32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
