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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/repository"
	"github.com/tomoncle/bunrepo/types"
	"github.com/uptrace/bun"
)

type task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Title    string `bun:"title,notnull"`
	Archived bool   `bun:"archived,notnull"`
}

func (*task) GlobalScopes() []repository.GlobalScope {
	return []repository.GlobalScope{
		{Name: "open", Apply: func(q bun.QueryBuilder) bun.QueryBuilder {
			return q.Where("? = ?", bun.Ident("archived"), false)
		}},
	}
}

func initMemoryDB(t *testing.T) *bun.DB {
	t.Helper()
	conn := database.DefaultConnectionConfig()
	conn.Type = "sqlite"
	conn.DBName = ":memory:"
	conn.HealthCheckInterval = 0

	db, err := database.InitDatabaseWithOptions(&database.Config{ConnectionConfig: *conn}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	require.NoError(t, database.CreateTables(context.Background(), db, (*task)(nil)))
	return db
}

func TestProviderWithoutDatabase(t *testing.T) {
	_ = database.CloseDB()
	provider := NewProvider[task]()

	_, err := provider.Repository()
	assert.ErrorIs(t, err, ErrDatabaseNotInitialized)

	err = provider.RunInTx(context.Background(), nil, func(context.Context, repository.Repository[task]) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrDatabaseNotInitialized)
}

func TestProviderHandsOutFreshRepositories(t *testing.T) {
	initMemoryDB(t)
	ctx := context.Background()
	provider := NewProvider[task]()

	first, err := provider.Repository()
	require.NoError(t, err)
	_, err = first.Create(ctx, types.Fields{"title": "write docs"})
	require.NoError(t, err)
	_, err = first.Create(ctx, types.Fields{"title": "ship", "archived": true})
	require.NoError(t, err)

	first.DisableGlobalScope("open")
	all, err := first.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	second, err := provider.Repository()
	require.NoError(t, err)
	assert.Empty(t, second.DisabledGlobalScopes())
	open, err := second.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestProviderOptionsApplyToEveryRepository(t *testing.T) {
	initMemoryDB(t)
	ctx := context.Background()
	provider := NewProvider[task](repository.WithWriteScopePolicy(repository.WriteScopesHonorSuppression))

	repo, err := provider.Repository()
	require.NoError(t, err)
	_, err = repo.Create(ctx, types.Fields{"title": "old", "archived": true})
	require.NoError(t, err)

	n, err := repo.DisableGlobalScope("open").UpdateBy(ctx, "title", "old", types.Fields{"archived": false})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProviderRunInTx(t *testing.T) {
	db := initMemoryDB(t)
	ctx := context.Background()
	provider := NewProvider[task]()
	errAbort := errors.New("abort")

	err := provider.RunInTx(ctx, nil, func(ctx context.Context, repo repository.Repository[task]) error {
		_, err := repo.Create(ctx, types.Fields{"title": "draft"})
		require.NoError(t, err)
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	err = provider.RunInTx(ctx, nil, func(ctx context.Context, repo repository.Repository[task]) error {
		_, err := repo.Create(ctx, types.Fields{"title": "final"})
		return err
	})
	require.NoError(t, err)

	repo, err := provider.RepositoryWith(db)
	require.NoError(t, err)
	rows, err := repo.GetAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "final", rows[0].Title)
}
