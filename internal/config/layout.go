/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout describes the directories used by the downloader. All of them are created inside the
// root directory, which is usually the working directory of the process.
type Layout struct {
	Root        string
	SteamCMDDir string
	GamesDir    string
	PublicDir   string
}

// NewLayout returns the default layout for the given root directory. An empty root means the
// current working directory.
func NewLayout(root string) (result Layout, err error) {
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			err = fmt.Errorf("failed to get working directory: %w", err)
			return
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		err = fmt.Errorf("failed to get absolute path of '%s': %w", root, err)
		return
	}
	result = Layout{
		Root:        root,
		SteamCMDDir: filepath.Join(root, SteamCMDDirName),
		GamesDir:    filepath.Join(root, GamesDirName),
		PublicDir:   filepath.Join(root, PublicDirName),
	}
	return
}

// Ensure creates the SteamCMD, games and public directories if they don't exist yet.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.SteamCMDDir, l.GamesDir, l.PublicDir} {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}
	return nil
}

// GameDir returns the directory where the game with the given application identifier is
// installed.
func (l Layout) GameDir(appID string) string {
	return filepath.Join(l.GamesDir, GameDirName(appID))
}

// PublicGameDir returns the public link of the game with the given application identifier.
func (l Layout) PublicGameDir(appID string) string {
	return filepath.Join(l.PublicDir, GameDirName(appID))
}

// DatabaseFile returns the path of the embedded history database.
func (l Layout) DatabaseFile() string {
	return filepath.Join(l.Root, DatabaseFileName)
}

// LogFile returns the path of the log file written by the server.
func (l Layout) LogFile() string {
	return filepath.Join(l.Root, LogFileName)
}

// GameDirName returns the name of the directory of the game with the given application
// identifier, for example `app_730`.
func GameDirName(appID string) string {
	return "app_" + appID
}

// Names of the files and directories of the layout:
const (
	SteamCMDDirName  = "steamcmd"
	GamesDirName     = "games"
	PublicDirName    = "public"
	DatabaseFileName = "steamdl.db"
	LogFileName      = "steamcmd_downloader.log"
)
