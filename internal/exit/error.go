/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package exit

import "fmt"

// Error is returned by commands that want the process to finish with a specific exit code. The
// code has usually been explained in the log already, so the message is just the number.
type Error int

func (e Error) Error() string {
	return fmt.Sprintf("%d", e)
}

func (e Error) Code() int {
	return int(e)
}
