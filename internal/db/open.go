package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	sqlx.BindDriver("libsql", sqlx.QUESTION)
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// IsRemote reports whether location names a libsql server instead of a local file.
func IsRemote(location string) bool {
	for _, scheme := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(location, scheme) {
			return true
		}
	}
	return false
}

// OpenDB opens a local sqlite file (created if absent) or a remote libsql database.
func OpenDB(location string) (*sqlx.DB, error) {
	if location == "" {
		return nil, wrapOpenDB(fmt.Errorf("a database location was not specified"))
	}
	if IsRemote(location) {
		db, err := sqlx.Open("libsql", location)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		return db, nil
	}

	if location != ":memory:" {
		_, statErr := os.Stat(location)
		if statErr != nil && !os.IsNotExist(statErr) {
			return nil, wrapOpenDB(statErr)
		}
		if os.IsNotExist(statErr) {
			err := os.MkdirAll(filepath.Dir(location), 0777)
			if err != nil {
				return nil, wrapOpenDB(fmt.Errorf("create directory: %w", err))
			}
			f, err := os.Create(location)
			if err != nil {
				return nil, wrapOpenDB(err)
			}
			f.Close()
		}
	}

	db, err := sqlx.Open("sqlite", location+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	// a single connection serializes writers, sqlite does not handle concurrent writes well
	db.SetMaxOpenConns(1)
	if location != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, wrapOpenDB(err)
		}
	}
	return db, nil
}
