package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "serialization failure", err: &pgconn.PgError{Code: CodeSerializationFailure}, expected: true},
		{name: "deadlock", err: &pgconn.PgError{Code: CodeDeadlockDetected}, expected: true},
		{name: "lock not available", err: &pgconn.PgError{Code: CodeLockNotAvailable}, expected: true},
		{name: "statement timeout", err: &pgconn.PgError{Code: CodeQueryCanceled}, expected: true},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, expected: true},
		{name: "wrapped deadlock", err: fmt.Errorf("update line: %w", &pgconn.PgError{Code: CodeDeadlockDetected}), expected: true},
		{name: "context deadline", err: context.DeadlineExceeded, expected: true},
		{name: "bad conn", err: driver.ErrBadConn, expected: true},
		{name: "unique violation", err: &pgconn.PgError{Code: CodeUniqueViolation}, expected: false},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}, expected: false},
		{name: "plain error", err: errors.New("boom"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: CodeDeadlockDetected}))
	assert.False(t, IsUniqueViolation(nil))
}
