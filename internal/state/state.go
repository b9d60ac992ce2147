// Package state persists the last known earliest date between runs.
//
// Stores have no locking, runs are expected not to overlap.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"slotwatch/internal/components/chrono"
)

// ErrRead and ErrWrite classify store failures, callers treat both as non-fatal.
var (
	ErrRead  = errors.New("state read failed")
	ErrWrite = errors.New("state write failed")
)

// Store holds a single string value.
type Store interface {
	// Read returns found = false if nothing was stored yet.
	Read(ctx context.Context) (value string, found bool, err error)
	Write(ctx context.Context, value string) error
}

// Clearer is implemented by stores that can forget their value.
type Clearer interface {
	Clear(ctx context.Context) error
}

type Config struct {
	// Driver is one of "file" (default), "sqlite" or "libsql".
	Driver string `json:"driver"`
	// Path is the state file for "file" and the database file for "sqlite".
	Path string `json:"path"`
	// Url is the database url for "libsql", ex. libsql://db.turso.io
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// Open returns the store described by `config`.
func Open(ctx context.Context, config Config, clock chrono.API) (Store, error) {
	switch strings.ToLower(config.Driver) {
	case "", "file":
		path := config.Path
		if path == "" {
			path = "log.txt"
		}
		return NewFileStore(path), nil
	case "sqlite":
		path := config.Path
		if path == "" {
			path = "slotwatch.db"
		}
		return OpenSQLite(ctx, path, clock)
	case "libsql":
		if config.Url == "" {
			return nil, fmt.Errorf("libsql state store requires a url")
		}
		return OpenLibsql(ctx, config.Url, config.AuthToken, clock)
	default:
		return nil, fmt.Errorf("unknown state driver %q", config.Driver)
	}
}
