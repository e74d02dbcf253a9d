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

package bunrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/repository"
	"github.com/uptrace/bun"
)

var ErrDatabaseNotInitialized = errors.New("bunrepo: database is not initialized")

// Provider is the registration of a repository type. It records options once
// and hands out a fresh repository per call, so a disabled scope never leaks
// from one consumer to the next.
type Provider[T any] struct {
	opts []repository.Option
}

// NewProvider registers repositories of T with the given options.
func NewProvider[T any](opts ...repository.Option) *Provider[T] {
	return &Provider[T]{opts: append([]repository.Option(nil), opts...)}
}

// Repository returns a new repository bound to the global database.
func (p *Provider[T]) Repository() (repository.Repository[T], error) {
	db := database.GetDB()
	if db == nil {
		return nil, ErrDatabaseNotInitialized
	}
	return p.RepositoryWith(db)
}

// RepositoryWith returns a new repository bound to db, usually a bun.Tx.
func (p *Provider[T]) RepositoryWith(db bun.IDB) (repository.Repository[T], error) {
	return repository.NewRepository[T](db, p.opts...)
}

// RunInTx runs fn with a repository bound to a transaction on the global
// database. The transaction is rolled back when fn returns an error.
func (p *Provider[T]) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, repo repository.Repository[T]) error) error {
	db := database.GetDB()
	if db == nil {
		return ErrDatabaseNotInitialized
	}
	return db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		repo, err := p.RepositoryWith(tx)
		if err != nil {
			return err
		}
		return fn(ctx, repo)
	})
}
