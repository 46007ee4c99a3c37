package snapshot

import "fmt"

// Snapshot owns the backing buffer for a loaded Graph and closes it
// (unmapping the file, if mmap'd) when the caller is done.
type Snapshot struct {
	Graph *Graph
	close func() error
}

// Open loads a NAVSNAP file at path, memory-mapping it where the
// platform supports it (see mmap_unix.go) and falling back to a full
// in-memory read otherwise (mmap_other.go). The returned Snapshot must
// be closed to release the mapping.
func Open(path string) (*Snapshot, error) {
	buf, closer, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	g, err := Decode(buf)
	if err != nil {
		closer()
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return &Snapshot{Graph: g, close: closer}, nil
}

// Close unmaps or frees the snapshot's backing buffer. The Graph must
// not be used afterward.
func (s *Snapshot) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
