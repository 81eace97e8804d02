/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

//go:build !unix

package steamcmd

import (
	"errors"
	"os"
	"os/exec"
)

func isolate(cmd *exec.Cmd) {
}

func terminate(cmd *exec.Cmd) error {
	err := cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
