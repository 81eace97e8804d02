/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"time"

	"github.com/google/uuid"
)

// Status values of download records:
const (
	StatusPreparing   = "preparing"
	StatusDownloading = "downloading"
	StatusCompleted   = "completed"
	StatusError       = "error"
	StatusCancelled   = "cancelled"
)

// DownloadRecord is the history entry of one download attempt.
type DownloadRecord struct {
	DownloadID    uuid.UUID  `db:"download_id" json:"downloadId"`
	AppID         string     `db:"app_id" json:"appId"`
	Username      string     `db:"username" json:"username"`
	Anonymous     bool       `db:"anonymous" json:"anonymous"`
	Status        string     `db:"status" json:"status"`
	Progress      float64    `db:"progress" json:"progress"`
	CurrentSizeMB float64    `db:"current_size_mb" json:"currentSizeMb"`
	TotalSizeMB   float64    `db:"total_size_mb" json:"totalSizeMb"`
	StartedAt     time.Time  `db:"started_at" json:"startedAt"`
	FinishedAt    *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
	Error         *string    `db:"error" json:"error,omitempty"`
}

// TableName returns the table name associated to this model.
func (r DownloadRecord) TableName() string {
	return "download"
}

// PrimaryKey returns the primary key column associated to this model.
func (r DownloadRecord) PrimaryKey() string {
	return "download_id"
}

// Finished returns true if the status is one of the final ones.
func (r DownloadRecord) Finished() bool {
	switch r.Status {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}
