// Package helper runs the short external commands the renderer's
// configuration can name: onstart/onplay/onpause/onstop hooks and an
// external volume-control script pair. It is the Go equivalent of the
// original's ExecCmd wrapper around sh -c and popen-style backtick
// capture.
package helper

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds how long a hook command may run before it is
// killed, so a hung external script cannot wedge the event loop that
// triggered it.
const DefaultTimeout = 10 * time.Second

// Run executes cmdline through the shell, fire-and-forget, logging
// nothing itself -- callers decide how to report failure. Used for
// onstart/onplay/onpause/onstop and onvolumechange hooks.
func Run(cmdline string) error {
	if strings.TrimSpace(cmdline) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdline)
	return cmd.Run()
}

// Backtick runs argv and returns its trimmed standard output, the Go
// analogue of ExecCmd::backtick: used for the "getexternalvolume"
// command, which is expected to print a single 0-100 number.
func Backtick(argv []string) (string, error) {
	if len(argv) == 0 {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}
