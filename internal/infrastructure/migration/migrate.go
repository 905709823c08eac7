// Package migration applies the billing schema with golang-migrate, either
// from the SQL files embedded in the binary or from a directory on disk.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Migrator moves the schema between versions. Closing it also closes the
// *sql.DB it was built on.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New reads migrations from the directory at path
func New(db *sql.DB, path string, log *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open migrations at %s: %w", path, err)
	}
	return wrap(m, log), nil
}

// NewFromFS reads migrations from the root of fsys, normally migrations.FS
func NewFromFS(db *sql.DB, fsys fs.FS, log *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return wrap(m, log), nil
}

// ApplyEmbedded brings the database at dsn up to the newest version in fsys
// over a dedicated connection.
func ApplyEmbedded(dsn string, fsys fs.FS, log *zap.Logger) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	m, err := NewFromFS(db, fsys, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}

func wrap(m *migrate.Migrate, log *zap.Logger) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	m.Log = printfLogger{log.Sugar()}
	return &Migrator{m: m, log: log}
}

// run executes one golang-migrate operation. ErrNoChange is success.
func (mg *Migrator) run(op string, fn func() error, fields ...zap.Field) error {
	mg.log.Info("Migration started", append(fields, zap.String("op", op))...)
	err := fn()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mg.log.Info("Schema already up to date", zap.String("op", op))
		return nil
	case err != nil:
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.log.Info("Migration finished", zap.String("op", op), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (mg *Migrator) Up() error   { return mg.run("up", mg.m.Up) }
func (mg *Migrator) Down() error { return mg.run("down", mg.m.Down) }

// Steps applies n migrations forward, or |n| backward when n is negative
func (mg *Migrator) Steps(n int) error {
	return mg.run("steps", func() error { return mg.m.Steps(n) }, zap.Int("steps", n))
}

// GoTo migrates up or down until version is current
func (mg *Migrator) GoTo(version uint) error {
	return mg.run("goto", func() error { return mg.m.Migrate(version) }, zap.Uint("target_version", version))
}

// Version reports the applied version, or 0 on an empty database
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without running
// any SQL. It exists to recover from a migration that failed half way.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// printfLogger sends golang-migrate's progress lines to zap at debug level
type printfLogger struct{ s *zap.SugaredLogger }

func (l printfLogger) Printf(format string, v ...any) { l.s.Debugf(format, v...) }
func (l printfLogger) Verbose() bool                  { return false }
