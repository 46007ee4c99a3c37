package snapshot

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/udisondev/navroute/internal/requirement"
)

type section struct {
	offset uint64
	length uint64
}

// Decode parses a fully-buffered (mmap'd or read-in) snapshot file into
// a Graph. It validates magic, version, table-length consistency, N/K
// bounds, and CSR row monotonicity.
func Decode(buf []byte) (*Graph, error) {
	if len(buf) < headerFixedSize+int(sectionCount)*sectionTableEntrySize {
		return nil, ErrTruncatedFile
	}
	if string(buf[:8]) != Magic {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(buf[8:])
	if version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, Version)
	}

	n := binary.LittleEndian.Uint32(buf[12:])
	k := binary.LittleEndian.Uint32(buf[16:])
	p := binary.LittleEndian.Uint32(buf[20:])
	flags := binary.LittleEndian.Uint32(buf[24:])
	if k > 256 {
		return nil, fmt.Errorf("%w: landmark count %d exceeds 256", ErrInvalidOffsets, k)
	}

	sections, err := readSectionTable(buf)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		NodeCount:      n,
		LandmarkCount:  k,
		PredicateCount: p,
		Flags:          flags,
		Metadata:       map[string]string{},
		raw:            buf,
	}

	if err := decodeNodeArrays(g, buf, sections); err != nil {
		return nil, err
	}
	if err := decodeMovement(g, buf, sections); err != nil {
		return nil, err
	}
	if err := decodeSpecial(g, buf, sections); err != nil {
		return nil, err
	}
	if err := decodeGlobal(g, buf, sections); err != nil {
		return nil, err
	}
	if err := decodeLandmarks(g, buf, sections); err != nil {
		return nil, err
	}
	if err := decodeActionBlobs(g, buf, sections); err != nil {
		return nil, err
	}
	if err := decodePredicates(g, buf, sections); err != nil {
		return nil, err
	}
	if err := decodeRequirementMasks(g, buf, sections); err != nil {
		return nil, err
	}
	if err := decodeMetadata(g, buf, sections); err != nil {
		return nil, err
	}
	if err := verifyCRC(buf, sections); err != nil {
		return nil, err
	}

	g.BaseStepCostMs = metadataUint32(g.Metadata, "base_step_cost_ms", 600)
	g.BaseDiagonalCostMs = metadataUint32(g.Metadata, "base_diagonal_cost_ms", 600)

	return g, nil
}

func readSectionTable(buf []byte) ([sectionCount]section, error) {
	var out [sectionCount]section
	base := headerFixedSize
	for i := 0; i < int(sectionCount); i++ {
		off := base + i*sectionTableEntrySize
		offset := binary.LittleEndian.Uint64(buf[off:])
		length := binary.LittleEndian.Uint64(buf[off+8:])
		if offset+length > uint64(len(buf)) {
			return out, fmt.Errorf("%w: section %d extends past end of file", ErrInvalidOffsets, i)
		}
		out[i] = section{offset: offset, length: length}
	}
	return out, nil
}

func slice(buf []byte, s section) []byte {
	return buf[s.offset : s.offset+s.length]
}

func decodeNodeArrays(g *Graph, buf []byte, sections [sectionCount]section) error {
	n := int(g.NodeCount)

	xy := slice(buf, sections[sectionNodesXY])
	if len(xy) < n*8 {
		return fmt.Errorf("%w: nodes_xy too short for N=%d", ErrTruncatedFile, n)
	}
	g.X = make([]int32, n)
	g.Y = make([]int32, n)
	for i := 0; i < n; i++ {
		g.X[i] = int32(binary.LittleEndian.Uint32(xy[i*8:]))
		g.Y[i] = int32(binary.LittleEndian.Uint32(xy[i*8+4:]))
	}

	plane := slice(buf, sections[sectionNodesPlane])
	if len(plane) < n {
		return fmt.Errorf("%w: nodes_plane too short for N=%d", ErrTruncatedFile, n)
	}
	g.Plane = make([]int8, n)
	for i := 0; i < n; i++ {
		g.Plane[i] = int8(plane[i])
	}

	mask := slice(buf, sections[sectionMovementMask])
	if len(mask) < n {
		return fmt.Errorf("%w: movement_mask too short for N=%d", ErrTruncatedFile, n)
	}
	g.MovementMask = mask[:n]

	tg := slice(buf, sections[sectionTeleportGroup])
	if len(tg) >= n {
		g.TeleportGroup = tg[:n]
	}

	return nil
}

func decodeMovement(g *Graph, buf []byte, sections [sectionCount]section) error {
	rows := slice(buf, sections[sectionMovementCSRRows])
	n := int(g.NodeCount)
	if len(rows) < (n+1)*4 {
		return fmt.Errorf("%w: movement_csr_rows too short", ErrTruncatedFile)
	}
	g.MovementRows = make([]uint32, n+1)
	for i := 0; i <= n; i++ {
		g.MovementRows[i] = binary.LittleEndian.Uint32(rows[i*4:])
	}
	if err := checkMonotonic(g.MovementRows); err != nil {
		return err
	}

	edgeBuf := slice(buf, sections[sectionMovementCSREdges])
	edgeCount := int(g.MovementRows[n])
	if len(edgeBuf) < edgeCount*MovementEdgeRecordSize {
		return fmt.Errorf("%w: movement_csr_edges shorter than row total", ErrTruncatedFile)
	}
	g.MovementEdges = make([]MovementEdge, edgeCount)
	for i := 0; i < edgeCount; i++ {
		off := i * MovementEdgeRecordSize
		g.MovementEdges[i] = MovementEdge{
			Dst:  binary.LittleEndian.Uint32(edgeBuf[off:]),
			Cost: binary.LittleEndian.Uint16(edgeBuf[off+4:]),
		}
		if g.MovementEdges[i].Dst >= g.NodeCount {
			return fmt.Errorf("%w: movement edge %d dst out of range", ErrInvalidOffsets, i)
		}
	}
	return nil
}

func decodeSpecial(g *Graph, buf []byte, sections [sectionCount]section) error {
	rows := slice(buf, sections[sectionSpecialCSRRows])
	n := int(g.NodeCount)
	if len(rows) < (n+1)*4 {
		return fmt.Errorf("%w: special_csr_rows too short", ErrTruncatedFile)
	}
	g.SpecialRows = make([]uint32, n+1)
	for i := 0; i <= n; i++ {
		g.SpecialRows[i] = binary.LittleEndian.Uint32(rows[i*4:])
	}
	if err := checkMonotonic(g.SpecialRows); err != nil {
		return err
	}

	edgeBuf := slice(buf, sections[sectionSpecialCSREdges])
	edgeCount := int(g.SpecialRows[n])
	if len(edgeBuf) < edgeCount*SpecialEdgeRecordSize {
		return fmt.Errorf("%w: special_csr_edges shorter than row total", ErrTruncatedFile)
	}
	g.SpecialEdges = make([]SpecialEdge, edgeCount)
	for i := 0; i < edgeCount; i++ {
		off := i * SpecialEdgeRecordSize
		e := SpecialEdge{
			Dst:  binary.LittleEndian.Uint32(edgeBuf[off:]),
			Cost: binary.LittleEndian.Uint32(edgeBuf[off+4:]),
			Kind: edgeBuf[off+8],
			// 3 padding bytes at off+9..off+11
			RequirementMaskID: binary.LittleEndian.Uint32(edgeBuf[off+12:]),
			ActionBlobID:      binary.LittleEndian.Uint32(edgeBuf[off+16:]),
			ChainHeadID:       binary.LittleEndian.Uint32(edgeBuf[off+20:]),
		}
		if e.Dst >= g.NodeCount {
			return fmt.Errorf("%w: special edge %d dst out of range", ErrInvalidOffsets, i)
		}
		if e.Cost == 0 {
			return fmt.Errorf("%w: special edge %d has zero cost", ErrInvalidOffsets, i)
		}
		g.SpecialEdges[i] = e
	}
	return nil
}

func decodeGlobal(g *Graph, buf []byte, sections [sectionCount]section) error {
	data := slice(buf, sections[sectionGlobalEdges])
	if len(data) == 0 {
		return nil
	}
	if len(data) < 4 {
		return fmt.Errorf("%w: global_edges missing count prefix", ErrTruncatedFile)
	}
	count := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if len(data) < int(count)*GlobalEdgeRecordSize {
		return fmt.Errorf("%w: global_edges shorter than declared count", ErrTruncatedFile)
	}
	g.GlobalEdges = make([]GlobalEdge, count)
	for i := uint32(0); i < count; i++ {
		off := int(i) * GlobalEdgeRecordSize
		g.GlobalEdges[i] = GlobalEdge{
			Dst:               binary.LittleEndian.Uint32(data[off:]),
			Cost:              binary.LittleEndian.Uint32(data[off+4:]),
			RequirementMaskID: binary.LittleEndian.Uint32(data[off+8:]),
			ActionBlobID:      binary.LittleEndian.Uint32(data[off+12:]),
		}
	}
	return nil
}

func decodeLandmarks(g *Graph, buf []byte, sections [sectionCount]section) error {
	if g.LandmarkCount == 0 {
		return nil
	}
	data := slice(buf, sections[sectionLandmarks])
	want := uint64(g.NodeCount) * uint64(g.LandmarkCount) * 4
	if uint64(len(data)) < want {
		return fmt.Errorf("%w: landmarks section too short for N*K", ErrTruncatedFile)
	}
	total := int(g.NodeCount) * int(g.LandmarkCount)
	g.Landmarks = make([]uint32, total)
	for i := 0; i < total; i++ {
		g.Landmarks[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return nil
}

func decodeActionBlobs(g *Graph, buf []byte, sections [sectionCount]section) error {
	data := slice(buf, sections[sectionActionBlobs])
	t, err := ParseActionBlobTable(data)
	if err != nil {
		return err
	}
	g.ActionBlobs = t
	return nil
}

func decodePredicates(g *Graph, buf []byte, sections [sectionCount]section) error {
	data := slice(buf, sections[sectionPredicateDictionary])
	c := cursor{buf: data}
	preds := make([]requirement.Predicate, 0, g.PredicateCount)
	for id := uint32(0); c.pos < len(data); id++ {
		keyLen, err := c.u16()
		if err != nil {
			return err
		}
		keyBytes, err := c.bytes(int(keyLen))
		if err != nil {
			return err
		}
		op, err := c.u8()
		if err != nil {
			return err
		}
		threshold, err := c.i32()
		if err != nil {
			return err
		}
		preds = append(preds, requirement.Predicate{
			ID:        id,
			Key:       string(keyBytes),
			Op:        requirement.Op(op),
			Threshold: threshold,
		})
	}
	g.Predicates = preds
	return nil
}

func decodeRequirementMasks(g *Graph, buf []byte, sections [sectionCount]section) error {
	data := slice(buf, sections[sectionRequirementMasks])
	wordsEach := (int(g.PredicateCount) + 63) / 64
	if wordsEach == 0 {
		wordsEach = 1
	}
	stride := wordsEach * 8
	if stride == 0 || len(data)%stride != 0 {
		g.RequirementMasks = requirement.NewMaskTable(nil, wordsEach, 0)
		return nil
	}
	maskCount := len(data) / stride
	words := make([]uint64, maskCount*wordsEach)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	g.RequirementMasks = requirement.NewMaskTable(words, wordsEach, maskCount)
	return nil
}

func decodeMetadata(g *Graph, buf []byte, sections [sectionCount]section) error {
	data := slice(buf, sections[sectionMetadata])
	c := cursor{buf: data}
	if len(data) == 0 {
		return nil
	}
	count, err := c.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		kl, err := c.u16()
		if err != nil {
			return err
		}
		k, err := c.bytes(int(kl))
		if err != nil {
			return err
		}
		vl, err := c.u16()
		if err != nil {
			return err
		}
		v, err := c.bytes(int(vl))
		if err != nil {
			return err
		}
		g.Metadata[string(k)] = string(v)
	}
	return nil
}

func verifyCRC(buf []byte, sections [sectionCount]section) error {
	var last section
	for _, s := range sections {
		if s.offset+s.length > last.offset+last.length {
			last = s
		}
	}
	trailerOff := last.offset + last.length
	if trailerOff+4 > uint64(len(buf)) {
		return nil // no trailer present; builder may omit it in tests
	}
	want := binary.LittleEndian.Uint32(buf[trailerOff:])
	got := crc32.ChecksumIEEE(buf[:trailerOff])
	if want != got {
		return ErrCorrupt
	}
	return nil
}

func checkMonotonic(rows []uint32) error {
	for i := 1; i < len(rows); i++ {
		if rows[i] < rows[i-1] {
			return fmt.Errorf("%w: CSR row pointers not monotonic at %d", ErrInvalidOffsets, i)
		}
	}
	return nil
}

func metadataUint32(m map[string]string, key string, def uint32) uint32 {
	v, ok := m[key]
	if !ok {
		return def
	}
	var out uint32
	if _, err := fmt.Sscanf(v, "%d", &out); err != nil {
		return def
	}
	return out
}
