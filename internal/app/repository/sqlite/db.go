package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/config"
)

const DriverName = "sqlite3"

// Dialect returns the sqlite3 flavour of the SQL store.
func Dialect() repository.Dialect {
	return repository.Dialect{
		Name:         DriverName,
		Placeholders: repository.QuestionMark,
		IsDuplicate:  IsDuplicate,
	}
}

// IsDuplicate reports a primary key or unique constraint failure.
func IsDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// DSN opens path in read-write-create mode with a shared cache.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?cache=shared&mode=rwc&_busy_timeout=5000", path)
}

// Open creates or opens the database file at s.Path.
func Open(ctx context.Context, s config.DatabaseSettings, retry *repository.RetryPolicy, logger logging.Logger) (*repository.SQLStore, error) {
	return repository.OpenSQL(ctx, DriverName, DSN(s.Path), Dialect(), s.MaxConnections, retry, logger)
}
