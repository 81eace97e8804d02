/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"errors"
	"strings"
)

// ErrMissingUsername is returned when a non anonymous login doesn't have a user name.
var ErrMissingUsername = errors.New("username is required unless logging in anonymously")

// Credentials are used to login to Steam.
type Credentials struct {
	Username  string
	Password  string
	Anonymous bool
}

// Validate checks that the credentials can be used to login.
func (c Credentials) Validate() error {
	if !c.Anonymous && strings.TrimSpace(c.Username) == "" {
		return ErrMissingUsername
	}
	return nil
}

// User returns the name used in the log and in the history, `anonymous` for anonymous logins.
func (c Credentials) User() string {
	if c.Anonymous {
		return anonymousUser
	}
	return c.Username
}

// loginArgs returns the `+login` arguments for these credentials.
func (c Credentials) loginArgs() []string {
	if c.Anonymous {
		return []string{"+login", anonymousUser}
	}
	return []string{"+login", c.Username, c.Password}
}

const anonymousUser = "anonymous"
