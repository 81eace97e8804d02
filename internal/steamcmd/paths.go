/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"os"
	"path/filepath"
)

// InstallerBaseURL is the location of the SteamCMD installer archives in the Valve CDN.
const InstallerBaseURL = "https://steamcdn-a.akamaihd.net/client/installer/"

// ExecutableName returns the name of the SteamCMD executable for the given operating system.
func ExecutableName(goos string) string {
	if goos == "windows" {
		return "steamcmd.exe"
	}
	return "steamcmd.sh"
}

// ExecutablePath returns the path of the SteamCMD executable inside the given directory.
func ExecutablePath(dir, goos string) string {
	return filepath.Join(dir, ExecutableName(goos))
}

// InstallerURL returns the URL of the installer archive for the given operating system.
func InstallerURL(goos string) string {
	switch goos {
	case "windows":
		return InstallerBaseURL + "steamcmd.zip"
	case "darwin":
		return InstallerBaseURL + "steamcmd_osx.tar.gz"
	default:
		return InstallerBaseURL + "steamcmd_linux.tar.gz"
	}
}

// InstallerFileName returns the name of the file where the installer archive is saved before
// extracting it.
func InstallerFileName(goos string) string {
	if goos == "windows" {
		return "steamcmd_installer.zip"
	}
	return "steamcmd_installer.tar.gz"
}

// IsInstalled checks if the SteamCMD executable exists in the given directory. Except on Windows
// it also needs to be executable.
func IsInstalled(dir, goos string) bool {
	info, err := os.Stat(ExecutablePath(dir, goos))
	if err != nil || info.IsDir() {
		return false
	}
	if goos == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
