/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package steamcmd

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Progress is the information extracted from one line of the output of SteamCMD.
type Progress struct {
	// HasPercent indicates if the line contains a percentage.
	HasPercent bool
	Percent    float64

	// HasSize indicates if the line contains the `current / total` sizes.
	HasSize   bool
	CurrentMB float64
	TotalMB   float64

	// Success is true when the line reports that the download succeeded.
	Success bool

	// Failure is true when the line reports an error.
	Failure bool
}

var (
	percentRegexp = regexp.MustCompile(`(\d+\.?\d*)%`)
	sizeRegexp    = regexp.MustCompile(`(\d+\.?\d*) (\w+) / (\d+\.?\d*) (\w+)`)
)

// Markers written by SteamCMD:
const (
	successMarker      = "Success!"
	errorMarker        = "ERROR!"
	failedMarker       = "Failed"
	loginFailureMarker = "Login Failure"
	loginFailedMarker  = "FAILED"
)

// ParseProgress extracts the progress information from a line of SteamCMD output. A line that
// contains both the success and failure markers is considered successful.
func ParseProgress(line string) (result Progress) {
	match := percentRegexp.FindStringSubmatch(line)
	if match != nil {
		value, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			result.HasPercent = true
			result.Percent = value
		}
	}

	match = sizeRegexp.FindStringSubmatch(line)
	if match != nil {
		current, currentErr := strconv.ParseFloat(match[1], 64)
		total, totalErr := strconv.ParseFloat(match[3], 64)
		if currentErr == nil && totalErr == nil {
			result.HasSize = true
			result.CurrentMB = toMB(current, match[2])
			result.TotalMB = toMB(total, match[4])
		}
	}

	switch {
	case strings.Contains(line, successMarker):
		result.Success = true
	case strings.Contains(line, errorMarker) || strings.Contains(line, failedMarker):
		result.Failure = true
	}
	return
}

// toMB converts the value to megabytes. Unknown units are assumed to be megabytes already.
func toMB(value float64, unit string) float64 {
	switch unit {
	case "B":
		return value / (1024 * 1024)
	case "KB":
		return value / 1024
	case "GB":
		return value * 1024
	default:
		return value
	}
}

// Rates calculates the average speed in megabytes per second and the estimated remaining time,
// truncated to whole seconds. The ok result is false when they can't be calculated yet because
// no time has elapsed or nothing has been downloaded.
func Rates(currentMB, totalMB float64, elapsed time.Duration) (speed float64, remaining time.Duration,
	ok bool) {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return
	}
	speed = currentMB / seconds
	if speed <= 0 {
		return
	}
	left := totalMB - currentMB
	if left < 0 {
		left = 0
	}
	remaining = time.Duration(int64(left/speed)) * time.Second
	ok = true
	return
}
