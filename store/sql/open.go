package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// OpenDB opens a database handle for the given driver and wraps it in a
// bun.DB with the matching dialect.
func OpenDB(driver string, dsn string) (*bun.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}

	var dialect schema.Dialect
	switch driver {
	case DriverPostgres, "pg", "postgresql":
		driver = DriverPostgres
		dialect = pgdialect.New()
	case DriverSQLite, "sqlite":
		driver = DriverSQLite
		dialect = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	return bun.NewDB(sqlDB, dialect), nil
}

// NewRepositoryFactoryFromDSN opens the database and builds the factory in
// one step.
func NewRepositoryFactoryFromDSN(driver string, dsn string, opts ...FactoryOption) (*RepositoryFactory, error) {
	db, err := OpenDB(driver, dsn)
	if err != nil {
		return nil, err
	}
	return NewRepositoryFactoryFromDB(db, opts...)
}
