package dbstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens (and migrates) a SQLite-backed store at dsn, using the
// pure-Go glebarez/sqlite driver so the pool's DB collaborator never
// needs cgo.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("dbstore: create directory: %w", err)
			}
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("dbstore: connect: %w", err)
	}
	if err := db.AutoMigrate(&TableRow{}); err != nil {
		return nil, fmt.Errorf("dbstore: migrate: %w", err)
	}
	return db, nil
}
