package qdb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert := assert.New(t)

	for i, c := range []struct {
		err      error
		expected bool
	}{
		{err: &pgconn.PgError{Code: "23505"}, expected: true},
		{err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), expected: true},
		{err: &pgconn.PgError{Code: "23503"}, expected: false},
		{err: &pq.Error{Code: "23505"}, expected: true},
		{err: &pq.Error{Code: "42P01"}, expected: false},
		{err: errors.New("duplicate key value violates unique constraint"), expected: false},
	} {
		assert.Equal(c.expected, isUniqueViolation(c.err), "case #%d", i)
	}
}
