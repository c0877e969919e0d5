package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colonyops/cadence/internal/data/db"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsBusyError reports whether err is SQLITE_BUSY.
func IsBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_BUSY
	}
	return false
}

// IsCorruptionError reports whether err means the database file is unusable.
func IsCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "file is not a database")
}

// IsNotFoundError reports whether err is a missing-row error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// RecoverFromCorruption moves the database file and its WAL/SHM siblings
// aside under a timestamped name so the next Open starts fresh.
func RecoverFromCorruption(dataDir string) (string, error) {
	dbPath := filepath.Join(dataDir, db.FileName)
	backupPath := fmt.Sprintf("%s.corrupt.%s", dbPath, time.Now().Format("20060102-150405"))

	if err := os.Rename(dbPath, backupPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("backup corrupted database: %w", err)
	}

	// Stale WAL/SHM files would be replayed against the new database.
	for _, suffix := range []string{"-wal", "-shm"} {
		side := dbPath + suffix
		if _, err := os.Stat(side); err != nil {
			continue
		}
		if err := os.Rename(side, backupPath+suffix); err != nil {
			if rmErr := os.Remove(side); rmErr != nil {
				return "", fmt.Errorf("move %s file: %w", suffix, err)
			}
		}
	}

	return backupPath, nil
}

// OpenOrRecover opens the database, moving a corrupted file aside and
// retrying once.
func OpenOrRecover(dataDir string, opts db.OpenOptions) (*db.DB, string, error) {
	database, err := db.Open(dataDir, opts)
	if err == nil {
		return database, "", nil
	}
	if !IsCorruptionError(err) {
		return nil, "", err
	}

	backup, recErr := RecoverFromCorruption(dataDir)
	if recErr != nil {
		return nil, "", errors.Join(err, recErr)
	}

	database, err = db.Open(dataDir, opts)
	if err != nil {
		return nil, backup, err
	}
	return database, backup, nil
}
