/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/steamdl/steamdl/internal/config"
)

// PgConfigFrom converts the store configuration to the connection attributes of the database.
func PgConfigFrom(cfg config.PostgresConfig) PgConfig {
	return PgConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
		SSLMode:  cfg.SSLMode,
	}
}

// Open creates the repository selected by the configuration. The bbolt file defaults to the
// given one when the configuration doesn't specify it.
func Open(ctx context.Context, logger *slog.Logger, cfg config.StoreConfig,
	defaultFile string) (result Repository, err error) {
	switch cfg.Type {
	case "", config.StoreBolt:
		file := cfg.File
		if file == "" {
			file = defaultFile
		}
		repository, boltErr := NewBoltRepository().
			SetLogger(logger).
			SetFile(file).
			Build()
		if boltErr != nil {
			err = boltErr
			return
		}
		result = repository
	case config.StorePostgres:
		pool, poolErr := NewPgxPool(ctx, PgConfigFrom(cfg.Postgres))
		if poolErr != nil {
			err = poolErr
			return
		}
		result = &PostgresRepository{Db: pool}
	default:
		err = fmt.Errorf("unknown store type '%s'", cfg.Type)
	}
	return
}
