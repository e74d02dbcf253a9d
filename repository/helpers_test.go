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
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull,unique"`
	Type      string    `bun:"type,notnull"`
	IsActive  bool      `bun:"is_active,notnull"`
	Note      *string   `bun:"note"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt time.Time `bun:"deleted_at,soft_delete,nullzero"`
}

// account hides rows flagged hidden and only accepts name, hidden and profile
// on create.
type account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID      int64            `bun:"id,pk,autoincrement"`
	Name    string           `bun:"name,notnull"`
	Hidden  bool             `bun:"hidden,notnull"`
	Tier    int              `bun:"tier,notnull"`
	Profile types.JsonObject `bun:"profile,type:text"`
}

func (*account) GlobalScopes() []GlobalScope {
	return []GlobalScope{
		{Name: "visible", Apply: func(q bun.QueryBuilder) bun.QueryBuilder {
			return q.Where("? = ?", bun.Ident("hidden"), false)
		}},
	}
}

func (*account) Fillable() []string { return []string{"name", "hidden", "profile"} }

// plain has no primary key and no soft delete column.
type plain struct {
	bun.BaseModel `bun:"table:plains"`

	Label string `bun:"label"`
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateTables(context.Background(), db,
		(*member)(nil), (*account)(nil), (*plain)(nil)))
	return db
}

// seedMembers inserts owner, manager and staff with ids 1, 2 and 3, all inactive.
func seedMembers(t *testing.T, db bun.IDB) {
	t.Helper()
	members := []*member{
		{Name: "alice", Type: "owner"},
		{Name: "bob", Type: "manager"},
		{Name: "carol", Type: "staff"},
	}
	_, err := db.NewInsert().Model(&members).Exec(context.Background())
	require.NoError(t, err)
}

func seedAccounts(t *testing.T, db bun.IDB) {
	t.Helper()
	accounts := []*account{
		{Name: "public", Tier: 1},
		{Name: "secret", Hidden: true, Tier: 2},
		{Name: "partner", Tier: 2},
	}
	_, err := db.NewInsert().Model(&accounts).Exec(context.Background())
	require.NoError(t, err)
}

func ids[T any](rows []*T, id func(*T) int64) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, id(r))
	}
	return out
}

func memberID(m *member) int64 {
	return m.ID
}

func accountID(a *account) int64 {
	return a.ID
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.msg)
	}
	return out
}

func (l *recordingLogger) SetLevel(database.LogLevel) {}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) {
	l.record("debug", msg)
}

func (l *recordingLogger) Info(msg string, _ ...interface{}) {
	l.record("info", msg)
}

func (l *recordingLogger) Warn(msg string, _ ...interface{}) {
	l.record("warn", msg)
}

func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.record("error", msg)
}
