package signals

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"trusti/app"
)

// schemaVersion is the current signals database schema version. Bumping
// it wipes all signal data on the next startup so rows written by an
// incompatible previous schema cannot corrupt reads.
const schemaVersion = "v1"

var (
	signalsDB    *sql.DB
	signalsDBMu  sync.Mutex
	signalsDBOne sync.Once
)

// initDB opens (or creates) the dedicated signals SQLite database.
func initDB() error {
	var initErr error
	signalsDBOne.Do(func() {
		dir := os.ExpandEnv("$HOME/.trusti")
		dbPath := filepath.Join(dir, "data", "signals.db")
		os.MkdirAll(filepath.Dir(dbPath), 0700)

		var err error
		signalsDB, err = sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=10000")
		if err != nil {
			initErr = fmt.Errorf("signals db open: %w", err)
			return
		}
		signalsDB.SetMaxOpenConns(4)
		signalsDB.SetMaxIdleConns(4)

		// Check the stored schema version and wipe on mismatch.
		var storedVer string
		_ = signalsDB.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&storedVer)
		if storedVer != schemaVersion {
			if storedVer != "" {
				app.Log("signals", "signals db version mismatch (have %q, want %q), wiping data", storedVer, schemaVersion)
			}
			for _, table := range []string{"ratings", "bookmarks", "intents", "signal_places", "schema_version"} {
				if _, err = signalsDB.Exec(`DROP TABLE IF EXISTS ` + table); err != nil {
					initErr = fmt.Errorf("signals db wipe %s: %w", table, err)
					return
				}
			}
		}

		_, err = signalsDB.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version TEXT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS ratings (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				place_id   TEXT NOT NULL,
				category   TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_ratings_place ON ratings(place_id);
			CREATE INDEX IF NOT EXISTS idx_ratings_user  ON ratings(user_id);

			CREATE TABLE IF NOT EXISTS bookmarks (
				user_id    TEXT NOT NULL,
				place_id   TEXT NOT NULL,
				name       TEXT,
				address    TEXT,
				lat        REAL,
				lng        REAL,
				has_coords INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (user_id, place_id)
			);

			CREATE TABLE IF NOT EXISTS intents (
				user_id    TEXT NOT NULL,
				place_id   TEXT NOT NULL,
				id         TEXT NOT NULL,
				kind       TEXT NOT NULL,
				note       TEXT,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (user_id, place_id)
			);

			CREATE TABLE IF NOT EXISTS signal_places (
				place_id   TEXT PRIMARY KEY,
				name       TEXT,
				address    TEXT,
				lat        REAL,
				lng        REAL,
				has_coords INTEGER NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL
			);
		`)
		if err != nil {
			initErr = fmt.Errorf("signals db schema: %w", err)
			return
		}

		if storedVer != schemaVersion {
			if _, err = signalsDB.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
				initErr = fmt.Errorf("signals db version insert: %w", err)
				return
			}
		}
	})
	return initErr
}

// getDB returns the shared signals database, initialising it if needed.
func getDB() (*sql.DB, error) {
	if err := initDB(); err != nil {
		return nil, err
	}
	return signalsDB, nil
}
