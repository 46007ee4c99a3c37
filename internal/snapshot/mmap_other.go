//go:build !linux && !darwin

package snapshot

import "os"

// mapFile falls back to a full read for platforms without the unix mmap
// syscalls wired up here.
func mapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
