// Package tileindex loads the NAVTILE side file and answers the
// tile-exists probe: does a world tile have a node, and if so, which
// one. It is a separate, independently mmap'd file from the route
// snapshot because it is rebuilt and queried on a different cadence
// than the route graph itself.
package tileindex

import "errors"

const (
	Magic   = "NAVTILE\x00"
	Version = uint32(1)

	headerSize = 20 // magic(8) + version(4) + entry_count(4) + bucket_count(4)

	// EmptyBucket marks a bucket slot with no entries.
	EmptyBucket uint32 = 0xFFFFFFFF

	// entryRecordSize is the on-disk size of one entries[] record:
	// packed_xyp (u64) + node_id (u32) + next (u32).
	entryRecordSize = 16
)

var (
	ErrBadMagic           = errors.New("tileindex: bad magic header")
	ErrUnsupportedVersion = errors.New("tileindex: unsupported version")
	ErrTruncatedFile      = errors.New("tileindex: truncated file")
)

// Pack combines world coordinates and a plane into the 64-bit key used
// by the bucket table: plane in the high byte, x in the next 32 bits
// (masked), y in the low 24 bits.
func Pack(x, y, plane int32) uint64 {
	return (uint64(uint8(plane)) << 56) | ((uint64(uint32(x)) & 0xFFFFFFFF) << 24) | (uint64(uint32(y)) & 0xFFFFFF)
}
