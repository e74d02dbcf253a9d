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
	"context"

	"github.com/tomoncle/bunrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ScopeRepository toggles global scopes for subsequent reads.
type ScopeRepository[T any] interface {
	// DisableGlobalScope suppresses the named scope; disabling twice is a no-op.
	DisableGlobalScope(name string) Repository[T]

	// EnableGlobalScope lifts a suppression; unknown names are ignored.
	EnableGlobalScope(name string) Repository[T]

	// DisabledGlobalScopes returns the suppressed names in ascending order.
	DisabledGlobalScopes() []string
}

// ReadRepository defines the scope-aware read operations.
type ReadRepository[T any] interface {
	GetAll(ctx context.Context, columns []string) ([]*T, error)

	GetAllBy(ctx context.Context, attribute string, value interface{}, opts ...ReadOption) ([]*T, error)

	GetBy(ctx context.Context, attribute string, value interface{}, opts ...ReadOption) (*T, error)

	GetByOrFail(ctx context.Context, attribute string, value interface{}, opts ...ReadOption) (*T, error)

	GetByParams(ctx context.Context, params []Predicate, opts ...ReadOption) (*T, error)

	GetByParamsOrFail(ctx context.Context, params []Predicate, opts ...ReadOption) (*T, error)

	GetAllByParams(ctx context.Context, params []Predicate, opts ...ReadOption) ([]*T, error)
}

// WriteRepository defines bulk writes keyed by an attribute set, and creation.
type WriteRepository[T any] interface {
	UpdateBy(ctx context.Context, attribute string, value interface{}, fields types.Fields) (int64, error)

	DeleteBy(ctx context.Context, attribute string, value interface{}) (int64, error)

	RestoreBy(ctx context.Context, attribute string, value interface{}) (int64, error)

	Create(ctx context.Context, fields types.Fields) (*T, error)
}

// Repository combines scope control, reads and writes, and exposes the table
// metadata and a raw Bun select builder for advanced use cases.
type Repository[T any] interface {
	ScopeRepository[T]
	ReadRepository[T]
	WriteRepository[T]
	TableName() string
	NewQuery(columns []string) *bun.SelectQuery
	Dialect() schema.Dialect
}
