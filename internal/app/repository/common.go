package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/logging"
)

// TableName is the single table backing the durable store.
const TableName = "transcriptions"

// CreateTableSQL is portable across the mysql, postgres and sqlite3 dialects.
const CreateTableSQL = `CREATE TABLE IF NOT EXISTS transcriptions (
	msg_id VARCHAR(64) NOT NULL PRIMARY KEY,
	reply_link TEXT NOT NULL
)`

// PlaceholderFunc generates parameter placeholders for different SQL dialects
type PlaceholderFunc func(n int) string

// QuestionMark is the placeholder style of mysql and sqlite3.
func QuestionMark(int) string { return "?" }

// Dollar is the postgres placeholder style.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Dialect captures what differs between the supported SQL drivers.
type Dialect struct {
	Name         string
	Placeholders PlaceholderFunc
	// IsDuplicate reports whether err is a unique key violation.
	IsDuplicate func(err error) bool
}

// SQLStore is the durable ResultStore shared by every SQL dialect.
//
// Every operation runs inside withConn: it registers with the in-flight
// guard, acquires a dedicated connection under the retry policy and releases
// it on all paths. Close refuses new operations and waits for the registered
// ones before closing the pool.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	retry   *RetryPolicy
	logger  logging.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewSQLStore wraps an opened pool. Call Init before use.
func NewSQLStore(db *sql.DB, dialect Dialect, retry *RetryPolicy, logger logging.Logger) *SQLStore {
	if dialect.Placeholders == nil {
		dialect.Placeholders = QuestionMark
	}
	if dialect.IsDuplicate == nil {
		dialect.IsDuplicate = func(error) bool { return false }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{db: db, dialect: dialect, retry: retry, logger: logger}
}

// OpenSQL opens a pool for driverName and bootstraps the store. The pool is
// closed again when Init fails.
func OpenSQL(ctx context.Context, driverName, dsn string, dialect Dialect, maxConns int, retry *RetryPolicy, logger logging.Logger) (*SQLStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, apperrors.Stage(apperrors.ErrStore, fmt.Errorf("open %s: %w", driverName, err))
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}

	store := NewSQLStore(db, dialect, retry, logger)
	if err := store.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Init verifies connectivity under the retry policy and bootstraps the schema.
func (s *SQLStore) Init(ctx context.Context) error {
	_, err := Retry(ctx, s.retry, "ping", func() (struct{}, error) {
		return struct{}{}, s.db.PingContext(ctx)
	})
	if err != nil {
		return apperrors.Stage(apperrors.ErrStore, fmt.Errorf("%s unreachable: %w", s.dialect.Name, err))
	}

	return s.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, CreateTableSQL); err != nil {
			return apperrors.Stage(apperrors.ErrStore, fmt.Errorf("create table failed: %w", err))
		}
		s.logger.Info("Initialized transcription table", zap.String("dialect", s.dialect.Name))
		return nil
	})
}

// Put inserts a record. It never upserts.
func (s *SQLStore) Put(ctx context.Context, messageID, replyLink string) error {
	query := fmt.Sprintf(
		"INSERT INTO transcriptions (msg_id, reply_link) VALUES (%s, %s)",
		s.dialect.Placeholders(1), s.dialect.Placeholders(2),
	)

	return s.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, query, messageID, replyLink)
		if err == nil {
			return nil
		}
		if s.dialect.IsDuplicate(err) {
			return apperrors.Stage(apperrors.ErrDuplicateRecord, fmt.Errorf("msg_id %s: %w", messageID, err))
		}
		return apperrors.Stage(apperrors.ErrStore, fmt.Errorf("insert failed: %w", err))
	})
}

// Get looks up the reply link for a message.
func (s *SQLStore) Get(ctx context.Context, messageID string) (string, bool, error) {
	query := fmt.Sprintf(
		"SELECT reply_link FROM transcriptions WHERE msg_id = %s",
		s.dialect.Placeholders(1),
	)

	var link string
	found := false
	err := s.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, query, messageID).Scan(&link)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil
		case err != nil:
			return apperrors.Stage(apperrors.ErrStore, fmt.Errorf("query failed: %w", err))
		}
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return link, found, nil
}

// Clean deletes every record and reports how many were removed.
func (s *SQLStore) Clean(ctx context.Context) (int64, error) {
	var removed int64
	err := s.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM transcriptions")
		if err != nil {
			return apperrors.Stage(apperrors.ErrStore, fmt.Errorf("clean failed: %w", err))
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	if err == nil {
		s.logger.Info("Cleaned transcription table", zap.Int64("removed", removed))
	}
	return removed, err
}

// Close waits for in-flight operations and closes the pool. It is idempotent.
func (s *SQLStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()
	s.logger.Info("Closing database pool", zap.String("dialect", s.dialect.Name))
	return s.db.Close()
}

// DB returns the underlying database connection
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) withConn(ctx context.Context, fn func(context.Context, *sql.Conn) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.ErrStoreClosed
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	conn, err := Retry(ctx, s.retry, "acquire", func() (*sql.Conn, error) {
		return s.db.Conn(ctx)
	})
	if err != nil {
		return apperrors.Stage(apperrors.ErrStore, fmt.Errorf("acquire connection: %w", err))
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Debug("Release connection failed", zap.Error(cerr))
		}
	}()

	return fn(ctx, conn)
}
