/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package downloader

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Link is a public link to the files of a completed download.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Status is a snapshot of the current download.
type Status struct {
	DownloadID    *uuid.UUID `json:"downloadId,omitempty"`
	GameID        string     `json:"gameId,omitempty"`
	State         string     `json:"status"`
	Progress      float64    `json:"progress"`
	CurrentSizeMB float64    `json:"currentSizeMb"`
	TotalSizeMB   float64    `json:"totalSizeMb"`
	SpeedMBs      float64    `json:"speedMbs"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	ElapsedTime   string     `json:"elapsedTime"`
	RemainingTime string     `json:"remainingTime"`
	Log           []string   `json:"log"`
	PublicLinks   []Link     `json:"publicLinks"`
}

const (
	zeroElapsed          = "00:00:00"
	calculatingRemaining = "calculating..."
	idleText             = "No active downloads"
)

// FormatDuration formats the duration truncated to seconds as `H:MM:SS`, preceded by the number
// of days when it is longer than one day, for example `1 day, 2:03:04`.
func FormatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int64(value / time.Second)
	days := seconds / 86400
	seconds %= 86400
	clock := fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
	switch days {
	case 0:
		return clock
	case 1:
		return "1 day, " + clock
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}

// FormatText renders the status as the human readable text block shown by the user interface.
func FormatText(status Status) string {
	if status.State == StateIdle {
		return idleText
	}
	buffer := &strings.Builder{}
	fmt.Fprintf(buffer, "Status: %s\n", strings.ToUpper(status.State))
	fmt.Fprintf(buffer, "Game ID: %s\n", status.GameID)
	fmt.Fprintf(buffer, "Progress: %.1f%%\n", status.Progress)
	fmt.Fprintf(buffer, "Size: %.2f MB / %.2f MB\n", status.CurrentSizeMB, status.TotalSizeMB)
	fmt.Fprintf(buffer, "Elapsed Time: %s\n", status.ElapsedTime)
	fmt.Fprintf(buffer, "Remaining Time: %s\n", status.RemainingTime)
	if status.State == StateCompleted && len(status.PublicLinks) > 0 {
		buffer.WriteString("\nDownload Complete! Public Links:\n")
		for _, link := range status.PublicLinks {
			fmt.Fprintf(buffer, "- %s: %s\n", link.Name, link.URL)
		}
	}
	return buffer.String()
}
