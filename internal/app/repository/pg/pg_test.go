package pg

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/config"
)

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pq.Error{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("exec: %w", &pq.Error{Code: "23505"}), true},
		{"foreign key violation", &pq.Error{Code: "23503"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicate(tt.err))
		})
	}
}

func TestDSN(t *testing.T) {
	s := config.DatabaseSettings{Host: "db", User: "bot", Password: "secret", Name: "vm"}
	assert.Equal(t, "host=db port=5432 user=bot password=secret dbname=vm sslmode=disable", DSN(s))

	s.Port = 6543
	assert.Contains(t, DSN(s), "port=6543")
}

func TestPostgresStore_DuplicatePut(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := repository.NewSQLStore(db, Dialect(), repository.SingleAttempt(), nil)

	insert := regexp.QuoteMeta("INSERT INTO transcriptions (msg_id, reply_link) VALUES ($1, $2)")
	mock.ExpectExec(insert).WithArgs("1100", "link-a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).WithArgs("1100", "link-b").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	require.NoError(t, store.Put(context.Background(), "1100", "link-a"))
	err = store.Put(context.Background(), "1100", "link-b")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}
