/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// downloadsBucket is the name of the bucket that contains the download records, indexed by
// identifier.
var downloadsBucket = []byte("downloads")

// BoltRepositoryBuilder contains the data and logic needed to create a repository backed by an
// embedded bbolt database. Don't create instances of this type directly, use the
// NewBoltRepository function instead.
type BoltRepositoryBuilder struct {
	logger  *slog.Logger
	file    string
	timeout time.Duration
}

// BoltRepository is a repository that stores the records as JSON documents in an embedded bbolt
// database file.
type BoltRepository struct {
	logger *slog.Logger
	db     *bbolt.DB
}

var _ Repository = (*BoltRepository)(nil)

// NewBoltRepository creates a builder that can then be used to configure and create a bbolt
// repository.
func NewBoltRepository() *BoltRepositoryBuilder {
	return &BoltRepositoryBuilder{
		timeout: 5 * time.Second,
	}
}

// SetLogger sets the logger. This is mandatory.
func (b *BoltRepositoryBuilder) SetLogger(value *slog.Logger) *BoltRepositoryBuilder {
	b.logger = value
	return b
}

// SetFile sets the database file. This is mandatory.
func (b *BoltRepositoryBuilder) SetFile(value string) *BoltRepositoryBuilder {
	b.file = value
	return b
}

// SetTimeout sets how long to wait for the lock of the database file. Default is five seconds.
func (b *BoltRepositoryBuilder) SetTimeout(value time.Duration) *BoltRepositoryBuilder {
	b.timeout = value
	return b
}

// Build uses the data stored in the builder to open the database and create the repository.
func (b *BoltRepositoryBuilder) Build() (result *BoltRepository, err error) {
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	if b.file == "" {
		err = errors.New("file is mandatory")
		return
	}
	db, err := bbolt.Open(b.file, 0600, &bbolt.Options{Timeout: b.timeout})
	if err != nil {
		err = fmt.Errorf("failed to open database '%s': %w", b.file, err)
		return
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(downloadsBucket)
		return err
	})
	if err != nil {
		db.Close()
		err = fmt.Errorf("failed to create bucket: %w", err)
		return
	}
	b.logger.Info(
		"Opened history database",
		slog.String("file", b.file),
	)
	result = &BoltRepository{
		logger: b.logger,
		db:     db,
	}
	return
}

// Create is part of the implementation of the Repository interface.
func (r *BoltRepository) Create(ctx context.Context, record *DownloadRecord) error {
	return r.put(record, false)
}

// Update is part of the implementation of the Repository interface.
func (r *BoltRepository) Update(ctx context.Context, record *DownloadRecord) error {
	return r.put(record, true)
}

func (r *BoltRepository) put(record *DownloadRecord, existing bool) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	key := []byte(record.DownloadID.String())
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(downloadsBucket)
		exists := bucket.Get(key) != nil
		switch {
		case existing && !exists:
			return fmt.Errorf("failed to update download '%s': %w", record.DownloadID, ErrNotFound)
		case !existing && exists:
			return fmt.Errorf("failed to create download '%s': %w", record.DownloadID, ErrAlreadyExists)
		}
		return bucket.Put(key, data)
	})
}

// Get is part of the implementation of the Repository interface.
func (r *BoltRepository) Get(ctx context.Context, id uuid.UUID) (result *DownloadRecord, err error) {
	err = r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(downloadsBucket).Get([]byte(id.String()))
		if data == nil {
			return ErrNotFound
		}
		record := &DownloadRecord{}
		err := json.Unmarshal(data, record)
		if err != nil {
			return fmt.Errorf("failed to parse download '%s': %w", id, err)
		}
		result = record
		return nil
	})
	return
}

// List is part of the implementation of the Repository interface.
func (r *BoltRepository) List(ctx context.Context) (result []DownloadRecord, err error) {
	records := []DownloadRecord{}
	err = r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(downloadsBucket).ForEach(func(key, data []byte) error {
			var record DownloadRecord
			err := json.Unmarshal(data, &record)
			if err != nil {
				r.logger.WarnContext(
					ctx,
					"Ignoring download record that can't be parsed",
					slog.String("key", string(key)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	result = records
	return
}

// Close is part of the implementation of the Repository interface.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}
