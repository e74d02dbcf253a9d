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
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		err  error
		is   bool
		kind SQLError
	}{
		{sql.ErrNoRows, true, NoRowsErr},
		{fmt.Errorf("wrapped: %w", sql.ErrNoRows), true, NoRowsErr},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{&mysql.MySQLError{Number: 9999}, true, UnknownErr},
		{errors.New("constraint failed: UNIQUE constraint failed: members.email (2067)"), true, DuplicateKeyErr},
		{errors.New(`pq: duplicate key value violates unique constraint "members_email_key"`), true, DuplicateKeyErr},
		{errors.New("NOT NULL constraint failed: members.name"), true, NotNullViolationErr},
		{errors.New("SQL logic error: no such table: ghosts (1)"), true, NoTableErr},
		{errors.New("no such column: nickname"), true, NoColumnErr},
		{errors.New("connection refused"), false, UnknownErr},
		{nil, false, UnknownErr},
	}
	for _, c := range cases {
		is, kind := IsSqlError(c.err)
		assert.Equal(t, c.is, is, "%v", c.err)
		assert.Equal(t, c.kind, kind, "%v", c.err)
	}
}

func TestSQLErrorIsConstraint(t *testing.T) {
	assert.True(t, DuplicateKeyErr.IsConstraint())
	assert.True(t, ForeignKeyViolationErr.IsConstraint())
	assert.False(t, NoRowsErr.IsConstraint())
	assert.Equal(t, "duplicate key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(99).String())
}
