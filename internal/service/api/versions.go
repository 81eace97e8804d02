/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"fmt"

	"github.com/coreos/go-semver/semver"
)

// supportedVersions are the versions of the API that the server implements.
var supportedVersions = []string{
	"1.0.0",
}

// APIVersion describes one version of the API.
type APIVersion struct {
	Version string `json:"version"`
}

// APIVersions is the response of the versions endpoint.
type APIVersions struct {
	URIPrefix   string       `json:"uriPrefix"`
	APIVersions []APIVersion `json:"apiVersions"`
}

// newAPIVersions parses the given versions and returns them newest first, with the URI prefix of
// the newest major version.
func newAPIVersions(values ...string) (result APIVersions, err error) {
	if len(values) == 0 {
		err = fmt.Errorf("at least one version is required")
		return
	}
	versions := make([]*semver.Version, len(values))
	for i, value := range values {
		versions[i], err = semver.NewVersion(value)
		if err != nil {
			err = fmt.Errorf("version '%s' isn't a valid semantic version: %w", value, err)
			return
		}
	}
	semver.Sort(versions)
	result.APIVersions = make([]APIVersion, len(versions))
	for i, version := range versions {
		result.APIVersions[len(versions)-1-i] = APIVersion{
			Version: version.String(),
		}
	}
	result.URIPrefix = fmt.Sprintf("/api/v%d", versions[len(versions)-1].Major)
	return
}
