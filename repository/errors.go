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

package repository

import (
	"database/sql"
	"errors"

	"github.com/tomoncle/bunrepo/database"
)

var (
	ErrNoDatabase       = errors.New("repository: database handle is nil")
	ErrInvalidModel     = errors.New("repository: model cannot be mapped to a table")
	ErrUnknownField     = errors.New("repository: unknown field")
	ErrNotFillable      = errors.New("repository: field is not fillable")
	ErrNotSoftDeletable = errors.New("repository: model has no soft delete column")
)

// IsNotFound reports whether err is the "no rows" error returned by the
// OrFail reads.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsConstraintViolation reports whether the database rejected a write because
// of a unique, not-null, foreign key or check constraint.
func IsConstraintViolation(err error) bool {
	is, kind := database.IsSqlError(err)
	return is && kind.IsConstraint()
}
