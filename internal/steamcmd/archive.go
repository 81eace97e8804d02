/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// extractArchive extracts the tar.gz or zip archive into the directory. The format is selected
// from the extension of the file name.
func extractArchive(file, dir string) error {
	if strings.HasSuffix(file, ".zip") {
		return extractZip(file, dir)
	}
	return extractTarball(file, dir)
}

func extractTarball(file, dir string) error {
	input, err := os.Open(file)
	if err != nil {
		return err
	}
	defer input.Close()
	decompressor, err := gzip.NewReader(input)
	if err != nil {
		return fmt.Errorf("failed to decompress '%s': %w", file, err)
	}
	defer decompressor.Close()
	reader := tar.NewReader(decompressor)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("failed to read '%s': %w", file, err)
		}
		target, err := entryPath(dir, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			err = os.MkdirAll(target, 0755)
		case tar.TypeReg:
			err = writeEntry(target, fs.FileMode(header.Mode).Perm(), reader)
		default:
			// Links and devices aren't part of the installer.
			continue
		}
		if err != nil {
			return err
		}
	}
}

func extractZip(file, dir string) error {
	reader, err := zip.OpenReader(file)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("failed to open '%s': %w", file, err)
	}
	defer reader.Close()
	for _, entry := range reader.File {
		target, err := entryPath(dir, entry.Name)
		if err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			err = os.MkdirAll(target, 0755)
			if err != nil {
				return err
			}
			continue
		}
		err = extractZipEntry(entry, target)
		if err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(entry *zip.File, target string) error {
	input, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", entry.Name, err)
	}
	defer input.Close()
	mode := entry.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	return writeEntry(target, mode, input)
}

// entryPath calculates the path where an archive entry will be written, and rejects the entries
// that would be written outside of the directory.
func entryPath(dir, name string) (result string, err error) {
	result = filepath.Join(dir, name)
	relative, err := filepath.Rel(dir, result)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		err = fmt.Errorf("archive entry '%s' is outside of the target directory", name)
		return
	}
	return
}

func writeEntry(target string, mode fs.FileMode, input io.Reader) error {
	err := os.MkdirAll(filepath.Dir(target), 0755)
	if err != nil {
		return err
	}
	output, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	_, err = io.Copy(output, input)
	if err != nil {
		output.Close()
		return fmt.Errorf("failed to write '%s': %w", target, err)
	}
	return output.Close()
}
