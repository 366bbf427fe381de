// Package storeopen builds a RecordStore for the maintenance commands from
// the same backend/driver choices the server config exposes.
package storeopen

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"noiportal/pkg/noi"
)

// Open returns a store for the given backend. backend "csv" uses logPath;
// backend "gorm" opens driver ("postgres" or "sqlite") with dsn.
func Open(backend, driver, dsn, logPath string) (noi.RecordStore, error) {
	switch backend {
	case "csv":
		return noi.NewCSVStore(logPath, nil), nil
	case "gorm":
		if dsn == "" {
			return nil, fmt.Errorf("gorm backend requires a DSN")
		}
		var dialector gorm.Dialector
		switch driver {
		case "sqlite":
			dialector = sqlite.Open(dsn)
		case "postgres":
			dialector = postgres.Open(dsn)
		default:
			return nil, fmt.Errorf("unknown driver %q", driver)
		}
		db, err := gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driver, err)
		}
		return noi.NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
