package main

import (
	"os"
	"os/exec"
)

// daemonized is set in the child's environment to tell a freshly
// re-executed process it is already detached.
const daemonizedEnvVar = "UPMPDCLI_DAEMONIZED"

// daemonize re-execs the current binary detached from the controlling
// terminal, with stdio redirected to /dev/null, then exits the parent.
// Go cannot fork a running multi-threaded process safely, so unlike
// the original's single fork() this re-execs the binary (the standard
// Go daemonization idiom).
func daemonize() error {
	if os.Getenv(daemonizedEnvVar) == "1" {
		return nil
	}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer devnull.Close()

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(os.Environ(), daemonizedEnvVar+"=1")
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	cmd.SysProcAttr = detachedProcAttr()
	if err := cmd.Start(); err != nil {
		return err
	}
	os.Exit(0)
	return nil
}
