/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

//go:build unix

package steamcmd

import (
	"errors"
	"os/exec"
	"syscall"
)

// isolate puts the process in its own process group. The SteamCMD script runs the real binary as
// a child, so signals have to reach the whole group.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// terminate sends SIGTERM to the process group of the command.
func terminate(cmd *exec.Cmd) error {
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
