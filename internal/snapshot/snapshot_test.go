package snapshot

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureBuilder assembles a minimal, valid NAVSNAP byte buffer for
// tests, mirroring internal/game/geo's synthetic region-byte builders
// used to exercise its block/region parser without a file on disk.
type fixtureBuilder struct {
	n, k, p uint32
	flags   uint32

	sections [sectionCount][]byte
}

func newFixtureBuilder(n, k, p uint32) *fixtureBuilder {
	return &fixtureBuilder{n: n, k: k, p: p}
}

func (fb *fixtureBuilder) set(s sectionName, data []byte) {
	fb.sections[s] = data
}

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

func (fb *fixtureBuilder) build() []byte {
	header := make([]byte, 0, headerFixedSize)
	header = append(header, []byte(Magic)...)
	header = append(header, le32(Version)...)
	header = append(header, le32(fb.n)...)
	header = append(header, le32(fb.k)...)
	header = append(header, le32(fb.p)...)
	header = append(header, le32(fb.flags)...)

	body := []byte{}
	offsets := make([]uint64, sectionCount)
	lengths := make([]uint64, sectionCount)
	base := uint64(headerFixedSize + int(sectionCount)*sectionTableEntrySize)
	for i := 0; i < int(sectionCount); i++ {
		offsets[i] = base + uint64(len(body))
		lengths[i] = uint64(len(fb.sections[i]))
		body = append(body, fb.sections[i]...)
	}

	table := make([]byte, 0, int(sectionCount)*sectionTableEntrySize)
	for i := 0; i < int(sectionCount); i++ {
		o := make([]byte, 8)
		l := make([]byte, 8)
		binary.LittleEndian.PutUint64(o, offsets[i])
		binary.LittleEndian.PutUint64(l, lengths[i])
		table = append(table, o...)
		table = append(table, l...)
	}

	buf := append(header, table...)
	buf = append(buf, body...)

	crc := crc32.ChecksumIEEE(buf)
	crcBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcBytes, crc)
	buf = append(buf, crcBytes...)
	return buf
}

// minimalTwoNodeFixture builds a 2-node graph with movement edges 0->1
// (east) and 1->0 (west), no special edges, no landmarks, no predicates.
func minimalTwoNodeFixture() []byte {
	fb := newFixtureBuilder(2, 0, 0)

	xy := append(append([]byte{}, le32(0)...), le32(0)...)
	xy = append(xy, le32(1)...)
	xy = append(xy, le32(0)...)
	fb.set(sectionNodesXY, xy)
	fb.set(sectionNodesPlane, []byte{0, 0})
	fb.set(sectionMovementMask, []byte{1 << DirE, 1 << DirW})
	fb.set(sectionTeleportGroup, []byte{0, 0})

	fb.set(sectionMovementCSRRows, append(append(append([]byte{}, le32(0)...), le32(1)...), le32(2)...))
	edges := append(append([]byte{}, le32(1)...), le16(600)...)
	edges = append(edges, le32(0)...)
	edges = append(edges, le16(600)...)
	fb.set(sectionMovementCSREdges, edges)

	fb.set(sectionSpecialCSRRows, append(append(append([]byte{}, le32(0)...), le32(0)...), le32(0)...))

	meta := le32(0) // zero metadata entries
	fb.set(sectionMetadata, meta)

	return fb.build()
}

func TestDecodeMinimalFixture(t *testing.T) {
	buf := minimalTwoNodeFixture()
	g, err := Decode(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 2, g.NodeCount)
	assert.Equal(t, int32(0), g.X[0])
	assert.Equal(t, int32(1), g.X[1])

	var gotDst uint32
	var gotCost uint16
	g.MovementNeighbors(0, func(dir int, dst uint32, cost uint16) {
		gotDst = dst
		gotCost = cost
	})
	assert.EqualValues(t, 1, gotDst)
	assert.EqualValues(t, 600, gotCost)
	assert.False(t, g.HasSpecialEdges(0))
}

func TestDecodeBadMagic(t *testing.T) {
	buf := minimalTwoNodeFixture()
	buf[0] = 'X'
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	buf := minimalTwoNodeFixture()
	binary.LittleEndian.PutUint32(buf[8:], 99)
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeTruncated(t *testing.T) {
	buf := minimalTwoNodeFixture()
	_, err := Decode(buf[:headerFixedSize+4])
	assert.ErrorIs(t, err, ErrTruncatedFile)
}

func TestDecodeCorruptCRC(t *testing.T) {
	buf := minimalTwoNodeFixture()
	buf[len(buf)-1] ^= 0xFF
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeInvalidOffsets(t *testing.T) {
	buf := minimalTwoNodeFixture()
	// Corrupt the first section-table entry's length to run past EOF.
	binary.LittleEndian.PutUint64(buf[headerFixedSize+8:], uint64(len(buf)))
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrInvalidOffsets)
}

func TestDecodeNonMonotonicRows(t *testing.T) {
	fb := newFixtureBuilder(2, 0, 0)
	xy := append(append([]byte{}, le32(0)...), le32(0)...)
	xy = append(xy, le32(1)...)
	xy = append(xy, le32(0)...)
	fb.set(sectionNodesXY, xy)
	fb.set(sectionNodesPlane, []byte{0, 0})
	fb.set(sectionMovementMask, []byte{0, 0})
	fb.set(sectionTeleportGroup, []byte{0, 0})
	// rows go 0 -> 5 -> 2: not monotonic.
	fb.set(sectionMovementCSRRows, append(append(append([]byte{}, le32(0)...), le32(5)...), le32(2)...))
	fb.set(sectionSpecialCSRRows, append(append(append([]byte{}, le32(0)...), le32(0)...), le32(0)...))
	fb.set(sectionMetadata, le32(0))

	_, err := Decode(fb.build())
	assert.ErrorIs(t, err, ErrInvalidOffsets)
}
