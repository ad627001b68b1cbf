// Package storage persists grid-cell results. Every backend offers an
// atomic create-if-absent claim so concurrent scanners can share one
// store; an entry's existence marks its cell as claimed or done.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no entry exists for the key.
	ErrNotFound = errors.New("storage: entry not found")

	// ErrStoreUnavailable indicates the store could not be read or written.
	ErrStoreUnavailable = errors.New("storage: result store unavailable")
)

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStoreUnavailable, op, key, err)
}

// Entry is one stored cell. Done is false for a bare claim marker.
type Entry struct {
	Key    string
	Done   bool
	Result Result
}

type Store interface {
	// Claim creates an empty marker for key if none exists. It reports
	// false when an entry (claim or result) is already present.
	Claim(ctx context.Context, key string) (bool, error)

	// Complete overwrites the entry for key with a finished result.
	Complete(ctx context.Context, key string, r Result) error

	Load(ctx context.Context, key string) (Entry, error)

	// Delete removes the entry so the cell is recomputed by the next scan.
	Delete(ctx context.Context, key string) error

	List(ctx context.Context) ([]Entry, error)

	Close() error
}

const (
	DriverFS       = "fs"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Drivers lists the supported backend names.
var Drivers = []string{DriverFS, DriverSQLite, DriverPostgres, DriverS3}

// Config selects and parameterises a backend.
type Config struct {
	Driver    string `yaml:"driver"`
	Dir       string `yaml:"dir"`        // fs: directory holding file_<A>_<B>.txt
	DSN       string `yaml:"dsn"`        // sqlite: file path; postgres: connection URL
	Bucket    string `yaml:"bucket"`     // s3
	Prefix    string `yaml:"prefix"`     // s3 key prefix
	Region    string `yaml:"region"`     // s3
	Endpoint  string `yaml:"endpoint"`   // s3, for MinIO and friends
	PathStyle bool   `yaml:"path_style"` // s3
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverFS, "":
		return nil
	case DriverSQLite, DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("store driver %s requires dsn", c.Driver)
		}
		return nil
	case DriverS3:
		if c.Bucket == "" {
			return fmt.Errorf("store driver s3 requires bucket")
		}
		return nil
	}
	return fmt.Errorf("unknown store driver %q (available: %v)", c.Driver, Drivers)
}

// Open returns the backend named by cfg.Driver, ready for use.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case DriverS3:
		return NewS3Store(ctx, cfg)
	default:
		dir := cfg.Dir
		if dir == "" {
			dir = "."
		}
		st := NewFileStore(dir)
		if err := st.Init(); err != nil {
			return nil, unavailable("init", dir, err)
		}
		return st, nil
	}
}
