/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
)

// PgConfig contains the attributes used to connect to the database.
type PgConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// URL returns the connection URL with the given scheme, for example `postgres` or `pgx5`.
func (c PgConfig) URL(scheme string) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	result := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return result.String()
}

// DB is the subset of the pgx pool methods used by the repository. It is satisfied by the real
// pool and by the mocks used in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// NewPgxPool get a concurrency safe pool of connection
func NewPgxPool(ctx context.Context, cfg PgConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL("postgres"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connection pool established")
	return pool, nil
}

// PostgresRepository stores the download records in a PostgreSQL table.
type PostgresRepository struct {
	Db DB
}

var _ Repository = (*PostgresRepository)(nil)

// columns returns the names of the columns of the download table, in the same order than the
// values returned by the values function.
func columns() []string {
	return []string{
		"download_id",
		"app_id",
		"username",
		"anonymous",
		"status",
		"progress",
		"current_size_mb",
		"total_size_mb",
		"started_at",
		"finished_at",
		"error",
	}
}

func values(record *DownloadRecord) []any {
	return []any{
		record.DownloadID,
		record.AppID,
		record.Username,
		record.Anonymous,
		record.Status,
		record.Progress,
		record.CurrentSizeMB,
		record.TotalSizeMB,
		record.StartedAt,
		record.FinishedAt,
		record.Error,
	}
}

// Create is part of the implementation of the Repository interface.
func (r *PostgresRepository) Create(ctx context.Context, record *DownloadRecord) error {
	query := psql.Insert(
		im.Into(record.TableName(), columns()...),
		im.Values(psql.Arg(values(record)...)),
	)
	sql, args, err := query.Build()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}
	_, err = r.Db.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("failed to create download '%s': %w", record.DownloadID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create download '%s': %w", record.DownloadID, err)
	}
	return nil
}

// Update is part of the implementation of the Repository interface.
func (r *PostgresRepository) Update(ctx context.Context, record *DownloadRecord) error {
	query := psql.Update(
		um.Table(record.TableName()),
		um.SetCol("status").ToArg(record.Status),
		um.SetCol("progress").ToArg(record.Progress),
		um.SetCol("current_size_mb").ToArg(record.CurrentSizeMB),
		um.SetCol("total_size_mb").ToArg(record.TotalSizeMB),
		um.SetCol("finished_at").ToArg(record.FinishedAt),
		um.SetCol("error").ToArg(record.Error),
		um.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(record.DownloadID))),
	)
	sql, args, err := query.Build()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}
	tag, err := r.Db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update download '%s': %w", record.DownloadID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update download '%s': %w", record.DownloadID, ErrNotFound)
	}
	return nil
}

// Get is part of the implementation of the Repository interface.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*DownloadRecord, error) {
	var record DownloadRecord
	query := psql.Select(
		sm.Columns(quoted()...),
		sm.From(record.TableName()),
		sm.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(id))),
	)
	sql, args, err := query.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := r.Db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get download '%s': %w", id, err)
	}
	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[DownloadRecord])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get download '%s': %w", id, err)
	}
	return &record, nil
}

// List is part of the implementation of the Repository interface.
func (r *PostgresRepository) List(ctx context.Context) ([]DownloadRecord, error) {
	var record DownloadRecord
	query := psql.Select(
		sm.Columns(quoted()...),
		sm.From(record.TableName()),
		sm.OrderBy(psql.Quote("started_at")).Desc(),
	)
	sql, args, err := query.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := r.Db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[DownloadRecord])
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	if records == nil {
		records = []DownloadRecord{}
	}
	return records, nil
}

// Close is part of the implementation of the Repository interface.
func (r *PostgresRepository) Close() error {
	r.Db.Close()
	return nil
}

func quoted() []any {
	names := columns()
	result := make([]any, len(names))
	for i, name := range names {
		result[i] = psql.Quote(name)
	}
	return result
}
