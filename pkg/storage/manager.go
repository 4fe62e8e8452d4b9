package storage

import (
	"fmt"

	"github.com/shashiranjanraj/canteen/config"
	"github.com/shashiranjanraj/canteen/pkg/database"
)

// Options selects and configures a driver.
type Options struct {
	Driver    string // file | sql | memory
	LocalRoot string // file driver root directory
	DBDriver  string // sql driver dialect
	DSN       string // sql driver DSN
	Secret    string // non-empty seals values at rest
}

// FromConfig reads the STORAGE_* and DB_* settings.
func FromConfig() Options {
	return Options{
		Driver:    config.StorageDriver(),
		LocalRoot: config.StorageLocalRoot(),
		DBDriver:  config.DatabaseDriver(),
		DSN:       config.DatabaseDSN(),
		Secret:    config.StorageSecret(),
	}
}

// Open boots the driver named in opts, sealed when opts.Secret is set.
func Open(opts Options) (Store, error) {
	st, err := openDriver(opts)
	if err != nil || opts.Secret == "" {
		return st, err
	}
	return Sealed(st, opts.Secret)
}

func openDriver(opts Options) (Store, error) {
	switch opts.Driver {
	case "", "file":
		return NewLocal(opts.LocalRoot)
	case "sql":
		db, err := database.Open(opts.DBDriver, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage/sql: %w", err)
		}
		return NewSQL(db)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q (supported: file, sql, memory)", opts.Driver)
	}
}
