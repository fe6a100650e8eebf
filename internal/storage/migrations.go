package storage

import (
	"database/sql"
	"fmt"
	"sort"
)

type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

var defaultMigrations = []Migration{
	{
		Version:     1,
		Description: "create base schema",
		Up: func(tx *sql.Tx) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					credential_hash TEXT NOT NULL,
					created_at TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS locations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id INTEGER NOT NULL,
					label TEXT,
					latitude REAL NOT NULL,
					longitude REAL NOT NULL,
					created_at TEXT NOT NULL,
					FOREIGN KEY(account_id) REFERENCES accounts(id)
				)`,
				`CREATE TABLE IF NOT EXISTS notes (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id INTEGER NOT NULL,
					title TEXT NOT NULL DEFAULT '',
					body TEXT,
					updated_at TEXT NOT NULL,
					location_id INTEGER,
					FOREIGN KEY(account_id) REFERENCES accounts(id),
					FOREIGN KEY(location_id) REFERENCES locations(id)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_notes_account_updated ON notes(account_id, updated_at)`,
				`CREATE INDEX IF NOT EXISTS idx_locations_account_created ON locations(account_id, created_at)`,
			}
			for _, stmt := range statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("apply migration v1 statement: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "add locations table",
		Up: func(tx *sql.Tx) error {
			// Structural check, not the version counter: a store from a
			// partially-applied upgrade may already have the table.
			exists, err := tableExists(tx, "locations")
			if err != nil {
				return err
			}
			if !exists {
				if _, err := tx.Exec(`CREATE TABLE locations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id INTEGER NOT NULL,
					label TEXT,
					latitude REAL NOT NULL,
					longitude REAL NOT NULL,
					created_at TEXT NOT NULL,
					FOREIGN KEY(account_id) REFERENCES accounts(id)
				)`); err != nil {
					return fmt.Errorf("create locations: %w", err)
				}
			}
			if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_locations_account_created ON locations(account_id, created_at)`); err != nil {
				return fmt.Errorf("create locations index: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "add notes.location_id",
		Up: func(tx *sql.Tx) error {
			exists, err := columnExists(tx, "notes", "location_id")
			if err != nil {
				return err
			}
			if !exists {
				if _, err := tx.Exec(`ALTER TABLE notes ADD COLUMN location_id INTEGER REFERENCES locations(id)`); err != nil {
					return fmt.Errorf("add notes.location_id: %w", err)
				}
			}
			if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_notes_account_updated ON notes(account_id, updated_at)`); err != nil {
				return fmt.Errorf("create notes index: %w", err)
			}
			return nil
		},
	},
}

func DefaultMigrations() []Migration {
	out := make([]Migration, len(defaultMigrations))
	copy(out, defaultMigrations)
	return out
}

func CurrentSchemaVersion() int {
	return maxMigrationVersion(defaultMigrations)
}

// RunMigrations applies every pending migration in order, one transaction
// per step. The schema version (PRAGMA user_version, engine-native header
// metadata) is bumped inside the step's transaction, so a crash mid-step
// leaves the version unchanged and the next boot retries the step.
func RunMigrations(db *sql.DB, migrations []Migration) error {
	if db == nil {
		return fmt.Errorf("run migrations: db is nil")
	}

	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	current, err := readSchemaVersion(db)
	if err != nil {
		return err
	}

	maxVersion := maxMigrationVersion(ordered)
	if current > maxVersion {
		return fmt.Errorf("%w: db=%d code=%d", ErrSchemaTooNew, current, maxVersion)
	}

	for _, migration := range ordered {
		if migration.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration v%d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration v%d (%s): %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record schema version v%d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", migration.Version, err)
		}
	}

	return nil
}

func readSchemaVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func maxMigrationVersion(migrations []Migration) int {
	max := 0
	for _, migration := range migrations {
		if migration.Version > max {
			max = migration.Version
		}
	}
	return max
}

func tableExists(tx *sql.Tx, table string) (bool, error) {
	var count int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
		return false, fmt.Errorf("query sqlite_master for %s: %w", table, err)
	}
	return count == 1, nil
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(`PRAGMA table_info(` + table + `)`)
	if err != nil {
		return false, fmt.Errorf("query table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dfltVal sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dfltVal, &pk); err != nil {
			return false, fmt.Errorf("scan table info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	return false, nil
}
