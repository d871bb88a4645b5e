package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/platform/postgres"
	"github.com/phrazzld/slide-explainer/internal/platform/sqlite"
	"github.com/phrazzld/slide-explainer/internal/store"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// registry is the opened job registry: the connection and the stores bound to it.
type registry struct {
	driver string
	db     *sql.DB
	jobs   store.JobStore
	owners store.OwnerStore
}

// openRegistry connects to the configured database and builds its stores.
func openRegistry(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*registry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch cfg.Driver {
	case driverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		// SQLite serializes writers; one connection avoids SQLITE_BUSY between them.
		db.SetMaxOpenConns(1)

		logger.Info("database connection established", "driver", cfg.Driver)
		return &registry{
			driver: cfg.Driver,
			db:     db,
			jobs:   sqlite.NewJobStore(db, logger),
			owners: sqlite.NewOwnerStore(db, logger),
		}, nil

	case driverPostgres:
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		logger.Info("database connection established", "driver", cfg.Driver)
		return &registry{
			driver: cfg.Driver,
			db:     db,
			jobs:   postgres.NewPostgresJobStore(db, logger),
			owners: postgres.NewPostgresOwnerStore(db, logger),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// migrations returns the goose provider for the registry's dialect.
func (r *registry) migrations(logger *slog.Logger) (*goose.Provider, error) {
	switch r.driver {
	case driverSQLite:
		return sqlite.NewMigrationProvider(r.db, logger)
	case driverPostgres:
		return postgres.NewMigrationProvider(r.db, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", r.driver)
	}
}

// withRegistry loads the database configuration, opens the registry for the
// duration of fn and closes it afterwards.
func (o *rootOptions) withRegistry(cmd *cobra.Command, fn func(ctx context.Context, reg *registry, log *slog.Logger) error) error {
	cfg, log, err := o.loadConfig(config.SectionServer, config.SectionDatabase)
	if err != nil {
		return err
	}

	reg, err := openRegistry(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			log.Error("error closing database connection", "error", err)
		}
	}()

	return fn(cmd.Context(), reg, log)
}

func (r *registry) Close() error {
	return r.db.Close()
}
