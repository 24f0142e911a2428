package accounts

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

func init() {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*PasswordReset)(nil))
}

// PersistenceConfig carries the options the persistence client expects
type PersistenceConfig struct {
	Debug                 bool   `json:"debug"`
	Driver                string `json:"driver"`
	Server                string `json:"server"`
	PingTimeoutExpression string `json:"ping_timeout"`
}

func (p PersistenceConfig) GetDebug() bool { return p.Debug }

func (p PersistenceConfig) GetDriver() string {
	if p.Driver == "" {
		return sqliteshim.ShimName
	}
	return p.Driver
}

func (p PersistenceConfig) GetServer() string {
	if p.Server == "" {
		return "file::memory:?cache=shared"
	}
	return p.Server
}

// GetOtelIdentifier names the tracing instrumentation scope; empty disables it.
func (p PersistenceConfig) GetOtelIdentifier() string { return "" }

func (p PersistenceConfig) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		return time.Second * 5
	}
	return dur
}

// SetupPersistence opens the database, applies the embedded migrations, and
// returns a bun handle ready for NewRepositoryManager.
func SetupPersistence(ctx context.Context, cfg PersistenceConfig) (*bun.DB, error) {
	db, err := sql.Open(cfg.GetDriver(), cfg.GetServer())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to open database connection")
	}

	return SetupPersistenceWithConn(ctx, cfg, db, sqlitedialect.New())
}

// SetupPersistenceWithConn wires an existing connection through the
// persistence client so migrations run against the caller's database.
func SetupPersistenceWithConn(ctx context.Context, cfg PersistenceConfig, db *sql.DB, dialect schema.Dialect) (*bun.DB, error) {
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to create persistence client")
	}

	migrations, err := MigrationsFS()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to load embedded migrations")
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel(migrationsRoot),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "migration dialect validation failed")
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to run migrations")
	}

	return client.DB(), nil
}
