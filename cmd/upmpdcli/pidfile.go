package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// writePidfile fails if another live process already holds path
// (checked via a zero-signal kill, per spec §7's "pidfile held by
// another live pid" fatal condition), then writes the current pid.
func writePidfile(path string) error {
	if path == "" {
		return nil
	}
	if data, err := os.ReadFile(path); err == nil {
		if pid, perr := strconv.Atoi(string(trimNewline(data))); perr == nil {
			if unix.Kill(pid, 0) == nil {
				return fmt.Errorf("upmpdcli: pidfile %s held by live pid %d", path, pid)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
