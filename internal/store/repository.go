/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package store

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record doesn't exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when a record with the same identifier already exists.
var ErrAlreadyExists = errors.New("record already exists")

// Repository stores the history of downloads.
type Repository interface {
	// Create saves a new record. It fails with ErrAlreadyExists if the identifier is in use.
	Create(ctx context.Context, record *DownloadRecord) error

	// Update replaces an existing record. It fails with ErrNotFound if it doesn't exist.
	Update(ctx context.Context, record *DownloadRecord) error

	// Get returns the record with the given identifier, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*DownloadRecord, error)

	// List returns all the records, newest first.
	List(ctx context.Context) ([]DownloadRecord, error)

	// Close releases the resources used by the repository.
	Close() error
}
