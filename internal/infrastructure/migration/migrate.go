// Package migration накатывает встроенные схемы хранилищ.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"path"

	"github.com/golang-migrate/migrate/v4"
	// Blank imports required for database driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var files embed.FS

// Schema - набор миграций для конкретного бэкенда.
type Schema string

const (
	SchemaSQLite   Schema = "sqlite"
	SchemaPostgres Schema = "postgres"
)

// Migrator - интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine - фабрика для создания мигратора (чтобы не лезть в ФС и БД в тестах)
type MigrationEngine func(schema Schema, databaseURL string) (Migrator, error)

type Migration struct {
	schema      Schema
	databaseURL string
	engine      MigrationEngine
}

func NewMigration(schema Schema, databaseURL string, engine MigrationEngine) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		schema:      schema,
		databaseURL: databaseURL,
		engine:      engine,
	}
}

// DefaultEngine читает миграции из бинарника
func DefaultEngine(schema Schema, databaseURL string) (Migrator, error) {
	src, err := iofs.New(files, path.Join("sql", string(schema)))
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations %s: %w", schema, err)
	}
	return migrate.NewWithSourceInstance("iofs", src, databaseURL)
}

func (mg *Migration) Up() (err error) {
	m, err := mg.engine(mg.schema, mg.databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s up: %w", mg.schema, err)
	}
	return nil
}
