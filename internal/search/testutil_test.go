package search

import (
	"encoding/binary"

	"github.com/udisondev/navroute/internal/requirement"
	"github.com/udisondev/navroute/internal/snapshot"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// chainLink describes one action-blob link for buildChainBlob: head
// links never carry a cost (the edge's own cost covers them), chain
// links do.
type chainLink struct {
	kind   uint8
	costMs uint32
}

// buildChainBlob encodes a single action blob (head + chain links) as
// the action_blobs section bytes would hold it, and returns a table
// with that blob at id 1.
func buildChainBlob(head chainLink, links []chainLink) *snapshot.ActionBlobTable {
	encodeLink := func(l chainLink, withCost bool) []byte {
		b := []byte{l.kind}
		b = append(b, le32(0)...) // interaction_target_id
		b = append(b, le32(0)...) // dest.minx
		b = append(b, le32(0)...) // dest.miny
		b = append(b, le32(0)...) // dest.maxx
		b = append(b, le32(0)...) // dest.maxy
		b = append(b, le32(0)...) // dest.plane
		if withCost {
			b = append(b, le32(l.costMs)...)
		}
		b = append(b, le16(0)...) // hint length, empty hint
		return b
	}

	record := encodeLink(head, false)
	record = append(record, le16(uint16(len(links)))...)
	for _, l := range links {
		record = append(record, encodeLink(l, true)...)
	}

	section := append(le32(uint32(len(record))), record...)
	t, err := snapshot.ParseActionBlobTable(section)
	if err != nil {
		panic(err)
	}
	return t
}

// gridGraph builds a w x h single-plane grid with full 8-directional
// movement between in-bounds neighbors, straight steps costing
// straightCost and diagonal steps costing diagCost. node(x,y) = y*w+x.
func gridGraph(w, h int, straightCost, diagCost uint16) *snapshot.Graph {
	n := w * h
	g := &snapshot.Graph{
		NodeCount:          uint32(n),
		X:                  make([]int32, n),
		Y:                  make([]int32, n),
		Plane:              make([]int8, n),
		MovementMask:       make([]uint8, n),
		MovementRows:       make([]uint32, n+1),
		SpecialRows:        make([]uint32, n+1),
		Metadata:           map[string]string{},
		BaseStepCostMs:     uint32(straightCost),
		BaseDiagonalCostMs: uint32(diagCost),
		RequirementMasks:   requirement.NewMaskTable(nil, 1, 0),
	}

	idx := func(x, y int) uint32 { return uint32(y*w + x) }
	inBounds := func(x, y int) bool { return x >= 0 && x < w && y >= 0 && y < h }

	var edges []snapshot.MovementEdge
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := idx(x, y)
			g.X[i] = int32(x)
			g.Y[i] = int32(y)
			g.MovementRows[i] = uint32(len(edges))
			var mask uint8
			for d := 0; d < snapshot.DirCount; d++ {
				nx := x + int(snapshot.DirDX[d])
				ny := y + int(snapshot.DirDY[d])
				if !inBounds(nx, ny) {
					continue
				}
				mask |= 1 << uint(d)
				cost := straightCost
				if snapshot.IsDiagonal(d) {
					cost = diagCost
				}
				edges = append(edges, snapshot.MovementEdge{Dst: idx(nx, ny), Cost: cost})
			}
			g.MovementMask[i] = mask
		}
	}
	g.MovementRows[n] = uint32(len(edges))
	g.MovementEdges = edges
	return g
}
