package snapshot

import (
	"encoding/binary"
	"fmt"
)

// Bounds is an inclusive destination area in world coordinates; Min==Max
// for a point destination.
type Bounds struct {
	MinX, MinY int32
	MaxX, MaxY int32
	Plane      int32
}

// Point returns true if the bounds collapse to a single tile.
func (b Bounds) Point() bool { return b.MinX == b.MaxX && b.MinY == b.MaxY }

// ActionLink is one step of reconstruction detail: either a standalone
// special edge's description, or one link in a chain descriptor.
type ActionLink struct {
	Kind                uint8
	InteractionTargetID uint32
	Dest                Bounds
	CostMs              uint32 // 0 for the head link (not encoded); reconstruction gives the head the edge cost minus its chain links' costs
	Hint                string
}

// ActionBlob is the structured action description a special edge's
// action_blob_id points to.
type ActionBlob struct {
	Head  ActionLink
	Chain []ActionLink // empty unless this is a chain head's blob
}

// ActionBlobTable indexes the length-prefixed action_blobs section by
// dense blob id, built once at load time by a single sequential scan.
// Never consulted during search expansion; only reconstruction calls
// Get.
type ActionBlobTable struct {
	data    []byte
	offsets []uint32 // offsets[id] = byte offset of record id within data
}

// ParseActionBlobTable builds an ActionBlobTable from the raw,
// length-prefixed action_blobs section bytes. Exported so callers that
// build a snapshot section by hand (tests, the offline builder) can
// construct a table without going through a full Decode.
func ParseActionBlobTable(data []byte) (*ActionBlobTable, error) {
	t := &ActionBlobTable{data: data}
	off := 0
	for off < len(data) {
		if off+4 > len(data) {
			return nil, fmt.Errorf("%w: action blob length prefix truncated", ErrTruncatedFile)
		}
		recLen := binary.LittleEndian.Uint32(data[off:])
		t.offsets = append(t.offsets, uint32(off))
		off += 4 + int(recLen)
		if off > len(data) {
			return nil, fmt.Errorf("%w: action blob record overruns section", ErrTruncatedFile)
		}
	}
	return t, nil
}

// Count returns the number of action blobs in the table.
func (t *ActionBlobTable) Count() int { return len(t.offsets) }

// Get decodes and returns the action blob for id (1-based; 0 is never a
// valid action_blob_id, mirroring the chain_head_id convention where 0
// means no chain).
func (t *ActionBlobTable) Get(id uint32) (ActionBlob, error) {
	if id == 0 || int(id) > len(t.offsets) {
		return ActionBlob{}, fmt.Errorf("action blob id %d out of range", id)
	}
	off := int(t.offsets[id-1])
	recLen := binary.LittleEndian.Uint32(t.data[off:])
	r := cursor{buf: t.data[off+4 : off+4+int(recLen)]}

	var blob ActionBlob
	link, err := decodeActionLink(&r, true)
	if err != nil {
		return ActionBlob{}, err
	}
	blob.Head = link

	chainLen, err := r.u16()
	if err != nil {
		return ActionBlob{}, err
	}
	for i := uint16(0); i < chainLen; i++ {
		l, err := decodeActionLink(&r, false)
		if err != nil {
			return ActionBlob{}, err
		}
		blob.Chain = append(blob.Chain, l)
	}
	return blob, nil
}

func decodeActionLink(r *cursor, head bool) (ActionLink, error) {
	var l ActionLink
	var err error
	if l.Kind, err = r.u8(); err != nil {
		return l, err
	}
	if l.InteractionTargetID, err = r.u32(); err != nil {
		return l, err
	}
	if l.Dest.MinX, err = r.i32(); err != nil {
		return l, err
	}
	if l.Dest.MinY, err = r.i32(); err != nil {
		return l, err
	}
	if l.Dest.MaxX, err = r.i32(); err != nil {
		return l, err
	}
	if l.Dest.MaxY, err = r.i32(); err != nil {
		return l, err
	}
	if l.Dest.Plane, err = r.i32(); err != nil {
		return l, err
	}
	if !head {
		if l.CostMs, err = r.u32(); err != nil {
			return l, err
		}
	}
	hintLen, err := r.u16()
	if err != nil {
		return l, err
	}
	hint, err := r.bytes(int(hintLen))
	if err != nil {
		return l, err
	}
	l.Hint = string(hint)
	return l, nil
}
