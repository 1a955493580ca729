package db

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MariaDbConfig carries the DSN and pool sizing for one database handle.
type MariaDbConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Database holds the SQL connection pool shared by all repositories.
type Database struct {
	*sql.DB
}

// New opens a MariaDB pool with the given sizing and verifies connectivity
// with a ping before handing it out.
func New(cfg MariaDbConfig) (*Database, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		if cErr := db.Close(); cErr != nil {
			return nil, cErr
		}
		return nil, err
	}
	return &Database{db}, nil
}
