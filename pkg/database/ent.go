package database

import (
	"context"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/internal/repo/migrate"
)

// NewEntDriver opens an ent SQL driver from central config
func NewEntDriver(cfg config.DatabaseConfig) (*entsql.Driver, error) {
	return NewEntDriverFromConfig(FromCentralConfig(cfg))
}

// NewEntDriverFromConfig opens an ent SQL driver from package Config
func NewEntDriverFromConfig(cfg Config) (*entsql.Driver, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}

	name := dialect.Postgres
	if cfg.driver() == DriverSQLite {
		name = dialect.SQLite
	}
	return entsql.OpenDB(name, db), nil
}

// MigrateEnt creates or updates the playcare tables. SafeMode keeps columns
// and indexes that no longer exist in the schema.
func MigrateEnt(ctx context.Context, drv dialect.Driver, cfg Config) error {
	var opts []schema.MigrateOption
	if !cfg.SafeMode {
		opts = append(opts, schema.WithDropColumn(true), schema.WithDropIndex(true))
	}
	return migrate.Create(ctx, drv, opts...)
}
