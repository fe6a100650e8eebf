package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nazrinhakim/notemap/internal/crypto"
	_ "modernc.org/sqlite"
)

const DefaultBusyTimeoutMS = 5000

// Options tune how the store opens its file. The zero value is usable.
type Options struct {
	// Digest hashes passwords before storage. Defaults to crypto.SHA256.
	Digest crypto.Digest
	// BusyTimeoutMS bounds lock waits against concurrent writers.
	BusyTimeoutMS int
}

// Store is the handle to the on-disk database. It is meant to be created
// once at startup and shared; Open itself must not be raced from multiple
// initiators.
type Store struct {
	db   *sql.DB
	path string

	Accounts  AccountRepository
	Locations LocationRepository
	Notes     NoteRepository
	Views     NoteViewReader
}

// Open opens or creates the database file at path, brings its schema to the
// current version and wires the repositories. Foreign-key enforcement,
// WAL journaling and the busy timeout are set through the DSN so every
// pooled connection carries them. A migration failure is fatal: no Store
// is returned.
func Open(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open store: empty path")
	}
	if opts.Digest == nil {
		opts.Digest = crypto.SHA256
	}
	if opts.BusyTimeoutMS <= 0 {
		opts.BusyTimeoutMS = DefaultBusyTimeoutMS
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("open store: create parent dir: %w: %v", ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", dsn(path, opts.BusyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("open store: %w: %v", ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)

	if err := RunMigrations(db, DefaultMigrations()); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureDBPermissions(path); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{
		db:   db,
		path: path,
	}
	store.Accounts = &accountRepository{db: db, digest: opts.Digest}
	store.Locations = &locationRepository{db: db}
	store.Notes = &noteRepository{db: db}
	store.Views = &noteViewReader{db: db}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// dsnPathEscaper percent-encodes the characters that would otherwise be
// parsed as URI structure. SQLite decodes them back when resolving the
// filename.
var dsnPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func dsn(path string, busyTimeoutMS int) string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		dsnPathEscaper.Replace(path), busyTimeoutMS,
	)
}

func ensureDBPermissions(path string) error {
	if err := os.Chmod(path, 0o600); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("set db file permissions: %w", err)
		}
	}

	walPath := path + "-wal"
	if err := os.Chmod(walPath, 0o600); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("set wal file permissions: %w", err)
		}
	}
	return nil
}
