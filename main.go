/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/steamdl/steamdl/internal"
	"github.com/steamdl/steamdl/internal/cmd"
	"github.com/steamdl/steamdl/internal/exit"
)

func main() {
	ctx := context.Background()

	tool, err := internal.NewTool().
		AddArgs(os.Args...).
		SetIn(os.Stdin).
		SetOut(os.Stdout).
		SetErr(os.Stderr).
		AddCommand(cmd.Start).
		AddCommand(cmd.Version).
		AddCommand(cmd.Install).
		AddCommand(cmd.Download).
		AddCommand(cmd.Migrate).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}

	err = tool.Run(ctx)
	if err != nil {
		var exitError exit.Error
		ok := errors.As(err, &exitError)
		if ok {
			os.Exit(exitError.Code())
		} else {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			os.Exit(1)
		}
	}
}
