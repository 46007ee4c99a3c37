package search

import (
	"container/heap"
	"context"

	"golang.org/x/sync/semaphore"
)

// edgeKind distinguishes which of the three edge families (movement,
// special, global) produced a relaxation, so Reconstruct can re-derive
// the traversed edge without storing every field redundantly.
type edgeKind uint8

const (
	edgeNone edgeKind = iota
	edgeMove
	edgeSpecial
	edgeGlobal
)

// edgeRef is the compact parent-edge descriptor stored per node,
// sufficient for Reconstruct to rebuild the tile path and action list.
type edgeRef struct {
	kind  edgeKind
	cost  uint32
	dir   int    // edgeMove: direction index taken
	index uint32 // edgeSpecial: absolute index into Graph.SpecialEdges; edgeGlobal: index into Graph.GlobalEdges

	// resFamily/resNext carry the controlled-revisit resource state a
	// surge/dive edge would install at its destination if accepted
	// (0 = not a resource edge). See resource.go.
	resFamily uint8
	resNext   resourceState
}

// resourceState is the per-node, per-family scratch the controlled-
// revisit relaxation rule needs (see resource.go).
type resourceState struct {
	readyMs     uint32
	chargesLeft uint8
}

// Context is one query's scratch memory: tentative-cost array, closed
// marks, parent links, open-list heap, and resource state, all sized
// to the snapshot's node count once and reused across queries via
// generation counters rather than being re-zeroed. Grounded on the
// teacher's BytePool (internal/gameserver/bufpool.go): a typed pool
// generalizing the same "reuse the backing array, just reset bookkeeping"
// idiom to search scratch memory instead of byte buffers.
type Context struct {
	gen uint32

	g        []uint32 // tentative cost to node i, valid iff genAt[i] == gen
	genAt    []uint32
	closedAt []uint32
	parent   []uint32
	pedge    []edgeRef

	surge map[uint32]resourceState
	dive  map[uint32]resourceState

	heap priorityQueue

	expanded      uint32
	heuristicHits uint32
}

func newContext(nodeCount uint32) *Context {
	return &Context{
		gen:      1, // zeroed genAt/closedAt slots must not match the live generation
		g:        make([]uint32, nodeCount),
		genAt:    make([]uint32, nodeCount),
		closedAt: make([]uint32, nodeCount),
		parent:   make([]uint32, nodeCount),
		pedge:    make([]edgeRef, nodeCount),
		surge:    make(map[uint32]resourceState),
		dive:     make(map[uint32]resourceState),
		heap:     make(priorityQueue, 0, 256),
	}
}

// reset prepares the context for a new query. Bumping gen invalidates
// every g/closed slot from the previous search in O(1); only the
// slots this query actually touches get re-read, so the per-query cost
// is O(expanded) rather than O(N).
func (c *Context) reset() {
	c.gen++
	c.heap = c.heap[:0]
	heap.Init(&c.heap)
	clear(c.surge)
	clear(c.dive)
	c.expanded = 0
	c.heuristicHits = 0
}

func (c *Context) hasG(node uint32) bool { return c.genAt[node] == c.gen }
func (c *Context) getG(node uint32) uint32 {
	if c.hasG(node) {
		return c.g[node]
	}
	return ^uint32(0)
}
func (c *Context) setG(node, value uint32) {
	c.g[node] = value
	c.genAt[node] = c.gen
}

func (c *Context) isClosed(node uint32) bool { return c.closedAt[node] == c.gen }
func (c *Context) setClosed(node uint32)     { c.closedAt[node] = c.gen }

// Pool amortizes Context allocation across queries and bounds
// concurrent search fan-out to its configured capacity. Acquire blocks
// until a slot is free; callers that want fail-fast ("busy") behavior
// should pass a context with a short deadline, surfacing as a
// PoolExhausted-style classification upstream.
type Pool struct {
	sem       *semaphore.Weighted
	free      chan *Context
	nodeCount uint32
}

// NewPool builds a pool sized for a snapshot with nodeCount nodes and
// bounded to capacity concurrent in-flight searches.
func NewPool(nodeCount uint32, capacity int) *Pool {
	return &Pool{
		sem:       semaphore.NewWeighted(int64(capacity)),
		free:      make(chan *Context, capacity),
		nodeCount: nodeCount,
	}
}

// Acquire reserves a fan-out slot and returns a reset Context, blocking
// until either a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Context, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	select {
	case c := <-p.free:
		c.reset()
		return c, nil
	default:
		return newContext(p.nodeCount), nil
	}
}

// Release returns c to the pool and frees its fan-out slot.
func (p *Pool) Release(c *Context) {
	select {
	case p.free <- c:
	default:
		// pool already holds capacity contexts; drop this one.
	}
	p.sem.Release(1)
}
