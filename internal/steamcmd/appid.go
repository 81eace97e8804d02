/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidAppID is returned when the identifier of the game can't be extracted from the input.
var ErrInvalidAppID = errors.New("invalid game ID or URL, please provide a valid Steam app ID or URL")

var appURLRegexp = regexp.MustCompile(`app/(\d+)`)

// ExtractAppID extracts the numeric application identifier from a game identifier or from a store
// URL like `https://store.steampowered.com/app/730/CounterStrike_2/`.
func ExtractAppID(input string) (result string, err error) {
	input = strings.TrimSpace(input)
	if isDigits(input) {
		result = input
		return
	}
	match := appURLRegexp.FindStringSubmatch(input)
	if match == nil {
		err = ErrInvalidAppID
		return
	}
	result = match[1]
	return
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
