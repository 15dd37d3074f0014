/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		want SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), true, NoRowsErr},
		{"canceled", context.Canceled, true, CanceledErr},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true, CanceledErr},
		{"conn done", sql.ErrConnDone, true, ConnectionErr},
		{"mysql invalid conn", mysql.ErrInvalidConn, true, ConnectionErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, DuplicateKeyErr},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452}, true, ForeignKeyViolationErr},
		{"mysql unknown number", &mysql.MySQLError{Number: 9999}, true, UnknownErr},
		{"pq undefined table", &pq.Error{Code: "42P01"}, true, NoTableErr},
		{"pq check", &pq.Error{Code: "23514"}, true, CheckConstraintViolationErr},
		{"pq connection failure", &pq.Error{Code: "08001"}, true, ConnectionErr},
		{"sqlite no such column", errors.New("SQL logic error: no such column: colour (1)"), true, NoColumnErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: widgets.code"), true, NotNullViolationErr},
		{"message index exists", errors.New("index idx_code already exists"), true, ExistIndexErr},
		{"closed", errors.New("sql: database is closed"), true, ConnectionErr},
		{"sqlite ambiguous", errors.New("SQL logic error: ambiguous column name: id (1)"), true, AmbiguousColumnErr},
		{"mysql ambiguous", &mysql.MySQLError{Number: 1052}, true, AmbiguousColumnErr},
		{"pq ambiguous", &pq.Error{Code: "42702"}, true, AmbiguousColumnErr},
		{"unrecognised", errors.New("boom"), false, UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, kind := IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.want, kind)
			assert.Equal(t, tt.want, ClassifySQLError(tt.err))
		})
	}
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "canceled", CanceledErr.String())
	assert.Equal(t, "ambiguous_column", AmbiguousColumnErr.String())
	assert.Equal(t, "unknown", SQLError(-3).String())
}
