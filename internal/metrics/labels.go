/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

// This file contains functions that calculate the labels included in metrics.

package metrics

import (
	"strconv"
	"strings"
)

// methodLabel calculates the `method` label from the given HTTP method.
func methodLabel(method string) string {
	return strings.ToUpper(method)
}

// pathLabel calculates the `path` label from the URL path.
func pathLabel(paths pathTree, path string) string {
	// Remove leading and trailing slashes:
	path = strings.Trim(path, "/")

	// Handle the special case of the root, which at this point will be an empty string:
	if path == "" {
		return "/"
	}

	// Clear segments that correspond to path variables:
	segments := strings.Split(path, "/")
	current := paths
	for i, segment := range segments {
		next, ok := current[segment]
		if ok {
			current = next
			continue
		}
		next, ok = current["-"]
		if ok {
			segments[i] = "-"
			current = next
			continue
		}
		return "/-"
	}

	// Reconstruct the path joining the modified segments:
	return "/" + strings.Join(segments, "/")
}

// codeLabel calculates the `code` label from the given HTTP response.
func codeLabel(code int) string {
	return strconv.Itoa(code)
}

// outcomeLabel calculates the `outcome` label of download metrics from the final state.
func outcomeLabel(state string) string {
	return strings.ToLower(state)
}

// Names of the labels added to metrics:
const (
	codeLabelName    = "code"
	methodLabelName  = "method"
	pathLabelName    = "path"
	outcomeLabelName = "outcome"
)

// Array of labels added to request metrics:
var requestLabelNames = []string{
	codeLabelName,
	methodLabelName,
	pathLabelName,
}
