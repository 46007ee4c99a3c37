//go:build linux || darwin

package snapshot

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile memory-maps path read-only. Grounded on the direct
// golang.org/x/sys/unix.Mmap usage shown in the pack's terminal raw-mode
// helper: open the fd, stat for length, mmap, close the fd (the mapping
// stays valid after the fd closes).
func mapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, nil, ErrTruncatedFile
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}

	closed := false
	closer := func() error {
		if closed {
			return nil
		}
		closed = true
		return unix.Munmap(data)
	}
	return data, closer, nil
}
