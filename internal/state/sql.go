package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"slotwatch/internal/components/assert"
	"slotwatch/internal/components/chrono"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// SQLStore keeps the value in a single-row table.
type SQLStore struct {
	db    *sql.DB
	clock chrono.API
}

// NewSQLStore creates the schema if needed.
func NewSQLStore(ctx context.Context, database *sql.DB, clock chrono.API) (SQLStore, error) {
	assert.NotNil(database)
	assert.NotNil(clock)

	_, err := database.ExecContext(ctx, Schema)
	if err != nil {
		return SQLStore{}, fmt.Errorf("create schema: %w", err)
	}
	return SQLStore{db: database, clock: clock}, nil
}

// OpenSQLite opens a local sqlite database file, ":memory:" is allowed.
func OpenSQLite(ctx context.Context, path string, clock chrono.API) (SQLStore, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLStore{}, err
	}
	// a second connection to ":memory:" would be a different database
	database.SetMaxOpenConns(1)
	return NewSQLStore(ctx, database, clock)
}

// OpenLibsql opens a remote libsql database.
func OpenLibsql(ctx context.Context, url, authToken string, clock chrono.API) (SQLStore, error) {
	dsn := url
	if authToken != "" {
		dsn = fmt.Sprintf("%s?authToken=%s", url, authToken)
	}
	database, err := sql.Open("libsql", dsn)
	if err != nil {
		return SQLStore{}, err
	}
	return NewSQLStore(ctx, database, clock)
}

func (s SQLStore) Read(ctx context.Context) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "select value from earliest_date where id = 1").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return value, true, nil
}

// UpdatedAt returns when the value was last written.
func (s SQLStore) UpdatedAt(ctx context.Context) (int64, error) {
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, "select updated_at from earliest_date where id = 1").Scan(&updatedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return updatedAt, nil
}

func (s SQLStore) Write(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into earliest_date (id, value, updated_at) values (1, ?, ?)
		on conflict (id) do update set value = excluded.value, updated_at = excluded.updated_at`,
		value,
		s.clock.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (s SQLStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "delete from earliest_date")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (s SQLStore) Close() error {
	return s.db.Close()
}
