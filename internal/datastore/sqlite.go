package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// openSQLite sets up the SQLite database connection.
func openSQLite(settings *conf.Settings) (*DataStore, error) {
	path := settings.Database.SQLite.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryFileIO).
				Component("datastore").
				Context("path", dir).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         newGormLogger(settings.Database.Debug),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("path", path).
			Build()
	}

	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	return New(db, false), nil
}

var memoryDBSeq atomic.Uint64

// OpenInMemory opens a throwaway in-memory SQLite store. Each call
// yields an isolated database, so parallel tests do not share state.
func OpenInMemory() (*DataStore, error) {
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         newGormLogger(false),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	return New(db, false), nil
}
