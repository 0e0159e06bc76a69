// Package mariadb is the MySQL/MariaDB flavour of the durable result store.
package mariadb

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/config"
)

const (
	DriverName = "mysql"

	erDupEntry = 1062
)

// Dialect returns the mysql flavour of the SQL store.
func Dialect() repository.Dialect {
	return repository.Dialect{
		Name:         DriverName,
		Placeholders: repository.QuestionMark,
		IsDuplicate:  IsDuplicate,
	}
}

// IsDuplicate reports ER_DUP_ENTRY.
func IsDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == erDupEntry
}

// DSN formats the driver connection string from the database settings.
func DSN(s config.DatabaseSettings) string {
	port := s.Port
	if port == 0 {
		port = config.DefaultMySQLPort
	}

	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(s.Host, strconv.Itoa(port))
	cfg.DBName = s.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Open connects to MariaDB and bootstraps the transcriptions table.
func Open(ctx context.Context, s config.DatabaseSettings, retry *repository.RetryPolicy, logger logging.Logger) (*repository.SQLStore, error) {
	return repository.OpenSQL(ctx, DriverName, DSN(s), Dialect(), s.MaxConnections, retry, logger)
}
