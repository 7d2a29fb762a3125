package main

import "syscall"

// detachedProcAttr starts the re-exec'd child in its own session, so
// it survives the parent's terminal hangup.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
