package credentials

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// segSize and segKey match the original's fixed SysV shared-memory
// layout: a null-terminated text blob, the same format as the
// file-backed persistence, guarded by a lock owned by whoever
// attaches (spec §4.12's "shared-memory segment layout is the same
// text content, null-terminated, within a fixed-size slot guarded by
// a simple lock owned by whoever attaches").
const (
	segSize = 3000
	segKey  = 923102018
)

// writeShmSegment attaches (creating on demand) the fixed-key SysV
// shared-memory segment the media-server plugin side reads
// credentials from, and writes buf null-terminated into it.
func writeShmSegment(buf []byte) error {
	if len(buf) >= segSize-1 {
		return fmt.Errorf("credentials: shm payload (%d bytes) exceeds segment size", len(buf))
	}
	id, err := unix.SysvShmget(segKey, segSize, unix.IPC_CREAT|0600)
	if err != nil {
		return fmt.Errorf("credentials: shmget: %w", err)
	}
	addr, err := unix.SysvShmat(id, 0, 0)
	if err != nil {
		return fmt.Errorf("credentials: shmat: %w", err)
	}
	defer unix.SysvShmdt(addr)

	seg := unsafe.Slice((*byte)(unsafe.Pointer(addr)), segSize)
	for i := range seg {
		seg[i] = 0
	}
	copy(seg, buf)
	return nil
}
