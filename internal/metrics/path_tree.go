/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import "strings"

// pathTree is a tree of URL path segments. Leaf segments are nil. A segment named `-` matches any
// value, which is how identifiers are represented.
type pathTree map[string]pathTree

// add adds the given path to the tree, creating the intermediate nodes as needed.
func (t pathTree) add(path string) {
	path = strings.Trim(path, "/")
	if path == "" {
		return
	}
	segments := strings.Split(path, "/")
	current := t
	for i, segment := range segments {
		next := current[segment]
		if next == nil && i < len(segments)-1 {
			next = pathTree{}
		}
		current[segment] = next
		current = next
	}
}
