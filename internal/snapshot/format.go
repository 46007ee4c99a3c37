package snapshot

// Binary layout constants for the NAVSNAP snapshot file.

const (
	Magic   = "NAVSNAP\x00"
	Version = uint32(1)

	headerFixedSize = 28 // magic(8) + version(4) + N(4) + K(4) + P(4) + flags(4)

	FlagHasGlobalEdges   uint32 = 1 << 0
	FlagHasResourceEdges uint32 = 1 << 1

	InvalidNode uint32 = 0xFFFFFFFF

	// MovementEdgeRecordSize is the on-disk size of one movement_csr_edges
	// record: dst (u32) + cost (u16).
	MovementEdgeRecordSize = 6

	// SpecialEdgeRecordSize is the on-disk size of one special_csr_edges
	// record: dst(u32) + cost(u32) + kind(u8) + pad(3) + requirement_mask_id(u32)
	// + action_blob_id(u32) + chain_head_id(u32). Keeps each record
	// >= 20 bytes with 4-byte alignment.
	SpecialEdgeRecordSize = 24

	// GlobalEdgeRecordSize is the on-disk size of one global_edges record:
	// dst(u32) + cost(u32) + requirement_mask_id(u32) + action_blob_id(u32).
	GlobalEdgeRecordSize = 16
)

// sectionName enumerates the sections the section table carries, in
// the fixed order this loader expects them to appear. The underlying
// format allows sections in any order; fixing the table's order here
// is a loader-local simplification, not a format change.
type sectionName int

const (
	sectionNodesXY sectionName = iota
	sectionNodesPlane
	sectionMovementMask
	sectionTeleportGroup
	sectionMovementCSRRows
	sectionMovementCSREdges
	sectionSpecialCSRRows
	sectionSpecialCSREdges
	sectionGlobalEdges
	sectionLandmarks
	sectionActionBlobs
	sectionPredicateDictionary
	sectionRequirementMasks
	sectionMetadata
	sectionCount // sentinel: number of entries in the section table
)

// sectionTableEntrySize is the on-disk size of one (offset, length) pair.
const sectionTableEntrySize = 16 // uint64 + uint64
