package db

import (
	"fmt"

	"github.com/yomogi/linkup/config"
	dbmysql "github.com/yomogi/linkup/db/mysql"
	dbsqlite "github.com/yomogi/linkup/db/sqlite"
	"gorm.io/gorm"
)

const (
	// ModeSQLite stores everything in a single local file (or a shared
	// mount); this is the default deployment shape.
	ModeSQLite = "sqlite"
	// ModeMySQL points at a shared MySQL server for multi-host deployments.
	ModeMySQL = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
