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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

func memoryConfig() *Config {
	conn := DefaultConnectionConfig()
	conn.Type = "sqlite"
	conn.DBName = ":memory:"
	conn.HealthCheckInterval = 0
	return &Config{ConnectionConfig: *conn}
}

func TestInitDBWithSQLiteMemory(t *testing.T) {
	RegisterModels((*widget)(nil))
	cfg := memoryConfig()
	cfg.DataMigrateConfig.EnableMigrateOnStartup = true

	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })

	assert.Same(t, db, GetDB())
	assert.NotNil(t, GetDatabaseManager())

	ctx := context.Background()
	_, err = db.NewInsert().Model(&widget{Name: "bolt"}).Exec(ctx)
	require.NoError(t, err)
	count, err := db.NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	status := GetHealthStatus(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, GetDatabaseStats().MaxOpenConns)

	// a second run finds the bootstrap migration already applied
	require.NoError(t, RunMigrations(ctx))
	applied, err := NewMigrationManager(db, nil).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "create_base_tables", applied[0].Name)
}

func TestCloseDBForgetsGlobal(t *testing.T) {
	_, err := InitDB(memoryConfig())
	require.NoError(t, err)
	require.NoError(t, CloseDB())

	assert.Nil(t, GetDB())
	assert.False(t, GetHealthStatus(context.Background()).Healthy)
	assert.True(t, errors.Is(RunMigrations(context.Background()), ErrNotInitialized))
}

func TestManagerPingBeforeConnect(t *testing.T) {
	m := NewDatabaseManager(nil)
	assert.ErrorIs(t, m.Ping(context.Background()), ErrNotInitialized)
	assert.False(t, m.HealthCheck(context.Background()).Healthy)
	assert.Equal(t, &DBStats{}, m.GetStats())
	assert.NoError(t, m.Disconnect())
}

func TestMigrationManagerRunsExtraItemsInOrder(t *testing.T) {
	db, err := InitDB(memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })

	var order []string
	mm := NewMigrationManager(db, nil)
	mm.Add(
		MigrationItem{Version: "010", Name: "later", Up: func(ctx context.Context, db bun.IDB) error {
			order = append(order, "010")
			return nil
		}},
		MigrationItem{Version: "002", Name: "earlier", Up: func(ctx context.Context, db bun.IDB) error {
			order = append(order, "002")
			return nil
		}},
	)
	require.NoError(t, mm.RunMigrations(context.Background()))
	assert.Equal(t, []string{"002", "010"}, order)
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) SetLevel(LogLevel) {}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) {}

func (l *recordingLogger) Info(msg string, fields ...interface{}) {}

func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.warnings = append(l.warnings, msg)
}

func (l *recordingLogger) Error(msg string, fields ...interface{}) {}

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	hook := NewSlowQueryHook(time.Millisecond, logger)

	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now().Add(-time.Second)})
	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 2", StartTime: time.Now()})
	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 3", StartTime: time.Now().Add(-time.Second), Err: errors.New("boom")})

	assert.Equal(t, []string{"Database slow query detected"}, logger.warnings)
}

func TestQueryHookWritesFailuresWhenNotVerbose(t *testing.T) {
	t.Setenv("BUNREPO_SQL", "1")
	var buf bytes.Buffer
	hook := NewQueryHook(WithQueryHookWriter(&buf))

	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT ok", StartTime: time.Now()})
	assert.Empty(t, buf.String())

	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT broken", StartTime: time.Now(), Err: errors.New("syntax error")})
	assert.Contains(t, buf.String(), "SELECT broken")
	assert.Contains(t, buf.String(), "syntax error")
}

func TestToFields(t *testing.T) {
	fields := toFields([]interface{}{"table", "members", "rows", 3, "dangling"})
	assert.Equal(t, "members", fields["table"])
	assert.Equal(t, 3, fields["rows"])
	assert.Equal(t, "dangling", fields["extra"])
}
