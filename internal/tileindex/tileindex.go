package tileindex

import (
	"encoding/binary"
	"fmt"
)

// entry mirrors one on-disk entries[] record.
type entry struct {
	key    uint64
	nodeID uint32
	next   uint32
}

// TileIndex is the memory-resident, read-only view of a NAVTILE file:
// a fixed bucket array plus a singly-linked entry chain per bucket for
// collision resolution.
type TileIndex struct {
	entryCount  uint32
	bucketCount uint32

	buckets []uint32
	entries []entry

	raw   []byte
	close func() error
}

// Open loads path, memory-mapping it on platforms where this
// package's mapFile backend supports it (see mmap_unix.go).
func Open(path string) (*TileIndex, error) {
	buf, closer, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("tileindex: open %s: %w", path, err)
	}
	idx, err := decode(buf)
	if err != nil {
		closer()
		return nil, fmt.Errorf("tileindex: decode %s: %w", path, err)
	}
	idx.raw = buf
	idx.close = closer
	return idx, nil
}

func decode(buf []byte) (*TileIndex, error) {
	if len(buf) < headerSize {
		return nil, ErrTruncatedFile
	}
	if string(buf[:8]) != Magic {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(buf[8:])
	if version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, Version)
	}
	entryCount := binary.LittleEndian.Uint32(buf[12:])
	bucketCount := binary.LittleEndian.Uint32(buf[16:])

	bucketsEnd := headerSize + int(bucketCount)*4
	if len(buf) < bucketsEnd {
		return nil, ErrTruncatedFile
	}
	buckets := make([]uint32, bucketCount)
	for i := uint32(0); i < bucketCount; i++ {
		buckets[i] = binary.LittleEndian.Uint32(buf[headerSize+int(i)*4:])
	}

	entriesEnd := bucketsEnd + int(entryCount)*entryRecordSize
	if len(buf) < entriesEnd {
		return nil, ErrTruncatedFile
	}
	entries := make([]entry, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		off := bucketsEnd + int(i)*entryRecordSize
		entries[i] = entry{
			key:    binary.LittleEndian.Uint64(buf[off:]),
			nodeID: binary.LittleEndian.Uint32(buf[off+8:]),
			next:   binary.LittleEndian.Uint32(buf[off+12:]),
		}
	}

	return &TileIndex{
		entryCount:  entryCount,
		bucketCount: bucketCount,
		buckets:     buckets,
		entries:     entries,
	}, nil
}

// Lookup reports whether world tile (x, y, plane) has a node, and if
// so, which node id. O(1) average case via the bucket's collision
// chain; worst case is bounded by the longest collision chain the
// offline builder produced.
func (t *TileIndex) Lookup(x, y, plane int32) (exists bool, nodeID uint32) {
	if t.bucketCount == 0 {
		return false, 0
	}
	key := Pack(x, y, plane)
	bucket := key % uint64(t.bucketCount)
	idx := t.buckets[bucket]
	for idx != EmptyBucket {
		e := t.entries[idx]
		if e.key == key {
			return true, e.nodeID
		}
		idx = e.next
	}
	return false, 0
}

// Close releases the backing buffer.
func (t *TileIndex) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}
