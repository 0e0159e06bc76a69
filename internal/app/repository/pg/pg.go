package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/config"
)

const (
	DriverName = "postgres"

	uniqueViolation = "23505"
)

// Dialect returns the postgres flavour of the SQL store.
func Dialect() repository.Dialect {
	return repository.Dialect{
		Name:         DriverName,
		Placeholders: repository.Dollar,
		IsDuplicate:  IsDuplicate,
	}
}

// IsDuplicate reports a unique_violation.
func IsDuplicate(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// DSN builds a libpq key/value connection string.
func DSN(s config.DatabaseSettings) string {
	port := s.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		s.Host, port, s.User, s.Password, s.Name)
}

// Open connects to postgres and bootstraps the transcriptions table.
func Open(ctx context.Context, s config.DatabaseSettings, retry *repository.RetryPolicy, logger logging.Logger) (*repository.SQLStore, error) {
	return repository.OpenSQL(ctx, DriverName, DSN(s), Dialect(), s.MaxConnections, retry, logger)
}
