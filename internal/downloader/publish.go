/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package downloader

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/steamdl/steamdl/internal/config"
)

// ManifestFileName is the name of the file that lists the files of a published game.
const ManifestFileName = "manifest.txt"

// Names of the public links:
const (
	DirectoryLinkName = "Game Files Directory"
	ManifestLinkName  = "Game Files Manifest"
)

// Publish makes the files of the game visible in the public directory, replacing whatever was
// there, writes the manifest and returns the links to the directory and the manifest.
func Publish(layout config.Layout, baseURL, appID string) (result []Link, err error) {
	gameDir := layout.GameDir(appID)
	publicDir := layout.PublicGameDir(appID)

	_, err = os.Lstat(publicDir)
	switch {
	case err == nil:
		err = os.RemoveAll(publicDir)
		if err != nil {
			err = fmt.Errorf("failed to remove '%s': %w", publicDir, err)
			return
		}
	case !os.IsNotExist(err):
		err = fmt.Errorf("failed to check '%s': %w", publicDir, err)
		return
	}
	err = os.Symlink(gameDir, publicDir)
	if err != nil {
		err = fmt.Errorf("failed to link '%s' to '%s': %w", publicDir, gameDir, err)
		return
	}

	files, err := listFiles(gameDir)
	if err != nil {
		return
	}
	err = writeManifest(filepath.Join(publicDir, ManifestFileName), files)
	if err != nil {
		return
	}

	url := fmt.Sprintf("%s/%s/%s", baseURL, config.PublicDirName, config.GameDirName(appID))
	result = []Link{
		{
			Name: DirectoryLinkName,
			URL:  url,
		},
		{
			Name: ManifestLinkName,
			URL:  url + "/" + ManifestFileName,
		},
	}
	return
}

// listFiles returns the sorted paths, relative to the directory, of the regular files it
// contains, excluding the manifest.
func listFiles(dir string) (result []string, err error) {
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		relative = filepath.ToSlash(relative)
		if relative == ManifestFileName {
			return nil
		}
		result = append(result, relative)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed to list files of '%s': %w", dir, err)
		return
	}
	slices.Sort(result)
	return
}

func writeManifest(file string, paths []string) (err error) {
	output, err := os.Create(file)
	if err != nil {
		err = fmt.Errorf("failed to create manifest '%s': %w", file, err)
		return
	}
	defer func() {
		closeErr := output.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close manifest '%s': %w", file, closeErr)
		}
	}()
	writer := bufio.NewWriter(output)
	for _, path := range paths {
		_, err = fmt.Fprintln(writer, path)
		if err != nil {
			return
		}
	}
	err = writer.Flush()
	return
}
