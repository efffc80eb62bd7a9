package settings

import (
	"fmt"
	"log/slog"
)

// Backend names accepted by Open
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendKeyring  = "keyring"
)

// Options selects and configures a Store backend
type Options struct {
	Backend       string
	Path          string // file and sqlite
	DSN           string // postgres
	Service       string // keyring
	Profile       string // keyring
	EncryptionKey string // optional; enables sealing of secret fields
}

// Open creates the configured Store
func Open(opts Options) (Store, error) {
	var (
		store Store
		err   error
	)

	switch opts.Backend {
	case "", BackendFile:
		path := opts.Path
		if path == "" {
			if path, err = DefaultFilePath(); err != nil {
				return nil, err
			}
		}
		store, err = NewFileStore(path)
	case BackendSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite settings backend requires a path")
		}
		store, err = NewSQLiteStore(opts.Path)
	case BackendPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres settings backend requires a dsn")
		}
		store, err = NewPostgresStore(opts.DSN)
	case BackendKeyring:
		store = NewKeyringStore(opts.Service, opts.Profile)
	default:
		return nil, fmt.Errorf("unknown settings backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("opened settings store",
		slog.String("component", "settings"),
		slog.String("backend", opts.Backend),
		slog.Bool("sealed", opts.EncryptionKey != ""))

	if opts.EncryptionKey == "" {
		return store, nil
	}
	sealer, err := NewSealer(opts.EncryptionKey)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return NewSealedStore(store, sealer), nil
}
