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
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

const updatedAtColumn = "updated_at"

type baseRepositoryImpl[T any] struct {
	db          bun.IDB
	table       *schema.Table
	scopes      []GlobalScope
	writeScopes WriteScopePolicy
	logger      database.Logger

	mu       sync.RWMutex
	disabled scopeSet
}

// NewRepository returns a repository for T backed by db, which may be a
// *bun.DB, a bun.Tx or a bun.Conn. T must be a struct Bun can map to a table.
func NewRepository[T any](db bun.IDB, opts ...Option) (Repository[T], error) {
	return newBaseRepository[T](db, opts...)
}

func newBaseRepository[T any](db bun.IDB, opts ...Option) (*baseRepositoryImpl[T], error) {
	if db == nil || reflect.ValueOf(db).Kind() == reflect.Ptr && reflect.ValueOf(db).IsNil() {
		return nil, ErrNoDatabase
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidModel, typ)
	}
	table := db.Dialect().Tables().Get(typ)
	if table == nil || table.Name == "" {
		return nil, fmt.Errorf("%w: %s has no table name", ErrInvalidModel, typ)
	}

	o := options{writeScopes: WriteScopesIgnoreSuppression}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = database.GetLogger()
	}

	return &baseRepositoryImpl[T]{
		db:          db,
		table:       table,
		scopes:      declaredScopes[T](o.scopes),
		writeScopes: o.writeScopes,
		logger:      o.logger,
		disabled:    make(scopeSet),
	}, nil
}

func (r *baseRepositoryImpl[T]) TableName() string { return r.table.Name }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

// NewQuery returns a select against the table projected to columns, with the
// active global scopes already applied. An empty list selects every column.
func (r *baseRepositoryImpl[T]) NewQuery(columns []string) *bun.SelectQuery {
	q := r.db.NewSelect().Model((*T)(nil))
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	scopes := r.activeScopes(true)
	return q.ApplyQueryBuilder(func(qb bun.QueryBuilder) bun.QueryBuilder {
		return applyScopes(qb, scopes)
	})
}

func (r *baseRepositoryImpl[T]) DisableGlobalScope(name string) Repository[T] {
	r.mu.Lock()
	r.disabled[name] = struct{}{}
	r.mu.Unlock()
	r.logger.Debug("Global scope disabled", "table", r.table.Name, "scope", name)
	return r
}

func (r *baseRepositoryImpl[T]) EnableGlobalScope(name string) Repository[T] {
	r.mu.Lock()
	delete(r.disabled, name)
	r.mu.Unlock()
	r.logger.Debug("Global scope enabled", "table", r.table.Name, "scope", name)
	return r
}

func (r *baseRepositoryImpl[T]) DisabledGlobalScopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled.names()
}

// activeScopes is evaluated per call; suppression never mutates r.scopes.
func (r *baseRepositoryImpl[T]) activeScopes(honorSuppression bool) []GlobalScope {
	if !honorSuppression {
		return r.scopes
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make([]GlobalScope, 0, len(r.scopes))
	for _, s := range r.scopes {
		if !r.disabled.has(s.Name) {
			active = append(active, s)
		}
	}
	return active
}

func (r *baseRepositoryImpl[T]) writeScopesFor() []GlobalScope {
	return r.activeScopes(r.writeScopes == WriteScopesHonorSuppression)
}

// selectQuery is the shared read path: active scopes, optional trashed rows,
// then predicates in order.
func (r *baseRepositoryImpl[T]) selectQuery(dest interface{}, columns []string, params []Predicate, ro readOptions) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest)
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	scopes := r.activeScopes(true)
	q = q.ApplyQueryBuilder(func(qb bun.QueryBuilder) bun.QueryBuilder {
		return applyPredicates(applyScopes(qb, scopes), params, ro.comparator)
	})
	if ro.withTrashed && r.softDeletes() {
		q = q.WhereAllWithDeleted()
	}
	return q
}

// softDeletes reports whether T has a soft_delete column. bun rejects
// WhereAllWithDeleted on models without one.
func (r *baseRepositoryImpl[T]) softDeletes() bool {
	return r.table.SoftDeleteField != nil
}

func (r *baseRepositoryImpl[T]) findAll(ctx context.Context, columns []string, params []Predicate, ro readOptions) ([]*T, error) {
	entities := make([]*T, 0)
	if err := r.selectQuery(&entities, columns, params, ro).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

// findFirst returns sql.ErrNoRows when nothing matches. Rows are taken in
// primary key order.
func (r *baseRepositoryImpl[T]) findFirst(ctx context.Context, params []Predicate, ro readOptions) (*T, error) {
	entity := new(T)
	q := r.selectQuery(entity, nil, params, ro)
	for _, pk := range r.table.PKs {
		q = q.OrderExpr("?TableAlias.? ASC", pk.SQLName)
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func orNil[T any](entity *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entity, err
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context, columns []string) ([]*T, error) {
	return r.findAll(ctx, columns, nil, newReadOptions(nil))
}

func (r *baseRepositoryImpl[T]) GetAllBy(ctx context.Context, attribute string, value interface{}, opts ...ReadOption) ([]*T, error) {
	return r.findAll(ctx, nil, []Predicate{Where(attribute, value)}, newReadOptions(opts))
}

func (r *baseRepositoryImpl[T]) GetBy(ctx context.Context, attribute string, value interface{}, opts ...ReadOption) (*T, error) {
	return orNil(r.findFirst(ctx, []Predicate{Where(attribute, value)}, newReadOptions(opts)))
}

func (r *baseRepositoryImpl[T]) GetByOrFail(ctx context.Context, attribute string, value interface{}, opts ...ReadOption) (*T, error) {
	return r.findFirst(ctx, []Predicate{Where(attribute, value)}, newReadOptions(opts))
}

func (r *baseRepositoryImpl[T]) GetByParams(ctx context.Context, params []Predicate, opts ...ReadOption) (*T, error) {
	return orNil(r.findFirst(ctx, params, newReadOptions(opts)))
}

func (r *baseRepositoryImpl[T]) GetByParamsOrFail(ctx context.Context, params []Predicate, opts ...ReadOption) (*T, error) {
	return r.findFirst(ctx, params, newReadOptions(opts))
}

func (r *baseRepositoryImpl[T]) GetAllByParams(ctx context.Context, params []Predicate, opts ...ReadOption) ([]*T, error) {
	return r.findAll(ctx, nil, params, newReadOptions(opts))
}

// writeFilter matches attribute IN value under the write scopes.
func (r *baseRepositoryImpl[T]) writeFilter(attribute string, value interface{}) func(bun.QueryBuilder) bun.QueryBuilder {
	scopes := r.writeScopesFor()
	return func(qb bun.QueryBuilder) bun.QueryBuilder {
		return In(attribute, value).apply(applyScopes(qb, scopes), CompareIn)
	}
}

// UpdateBy sets fields on every row whose attribute is in value and returns
// the number of rows affected. updated_at is refreshed when the table has it
// and fields does not set it.
func (r *baseRepositoryImpl[T]) UpdateBy(ctx context.Context, attribute string, value interface{}, fields types.Fields) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	q := r.db.NewUpdate().Model(new(T))
	for _, column := range fields.Columns() {
		if _, ok := r.table.FieldMap[column]; !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownField, column)
		}
		q = q.Set("? = ?", bun.Ident(column), fields[column])
	}
	if f, ok := r.table.FieldMap[updatedAtColumn]; ok && !fields.Has(updatedAtColumn) {
		q = q.Set("? = ?", f.SQLName, time.Now())
	}

	res, err := q.ApplyQueryBuilder(r.writeFilter(attribute, value)).Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.logger.Debug("Bulk update executed", "table", r.table.Name, "attribute", attribute, "rows", affected)
	return affected, nil
}

// DeleteBy removes every row whose attribute is in value. Models with a
// soft_delete column are marked deleted instead.
func (r *baseRepositoryImpl[T]) DeleteBy(ctx context.Context, attribute string, value interface{}) (int64, error) {
	res, err := r.db.NewDelete().
		Model(new(T)).
		ApplyQueryBuilder(r.writeFilter(attribute, value)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.logger.Debug("Bulk delete executed", "table", r.table.Name, "attribute", attribute, "rows", affected)
	return affected, nil
}

// RestoreBy clears the soft delete column of trashed rows whose attribute is
// in value.
func (r *baseRepositoryImpl[T]) RestoreBy(ctx context.Context, attribute string, value interface{}) (int64, error) {
	field := r.table.SoftDeleteField
	if field == nil {
		return 0, fmt.Errorf("%w: %s", ErrNotSoftDeletable, r.table.Name)
	}
	res, err := r.db.NewUpdate().
		Model(new(T)).
		Set("? = NULL", field.SQLName).
		WhereAllWithDeleted().
		Where("? IS NOT NULL", field.SQLName).
		ApplyQueryBuilder(r.writeFilter(attribute, value)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.logger.Debug("Bulk restore executed", "table", r.table.Name, "attribute", attribute, "rows", affected)
	return affected, nil
}

// Create builds a T from fields keyed by column name, inserts it and reloads
// the row by primary key so generated values are populated. Insert and reload
// share one transaction, so a failed reload leaves no row behind.
func (r *baseRepositoryImpl[T]) Create(ctx context.Context, fields types.Fields) (*T, error) {
	entity := new(T)
	if err := r.fill(entity, fields); err != nil {
		return nil, err
	}
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(entity).Exec(ctx); err != nil {
			return err
		}
		if len(r.table.PKs) == 0 {
			return nil
		}
		q := tx.NewSelect().Model(entity).WherePK()
		if r.softDeletes() {
			q = q.WhereAllWithDeleted()
		}
		return q.Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Record created", "table", r.table.Name, "fields", len(fields))
	return entity, nil
}

func (r *baseRepositoryImpl[T]) fill(entity *T, fields types.Fields) error {
	allowed := r.fillable()
	strct := reflect.ValueOf(entity).Elem()
	for _, column := range fields.Columns() {
		field, ok := r.table.FieldMap[column]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, column)
		}
		if !allowed.has(column) {
			return fmt.Errorf("%w: %s", ErrNotFillable, column)
		}
		if err := decodeField(fields[column], field.Value(strct).Addr().Interface()); err != nil {
			return fmt.Errorf("repository: decode %s: %w", column, err)
		}
	}
	return nil
}

// fillable lists the columns Create accepts. Without a Fillable declaration
// that is every column except primary keys and the soft delete column.
func (r *baseRepositoryImpl[T]) fillable() scopeSet {
	allowed := make(scopeSet)
	if m, ok := any(new(T)).(FillableModel); ok {
		for _, column := range m.Fillable() {
			allowed[column] = struct{}{}
		}
		return allowed
	}
	for _, f := range r.table.Fields {
		if f.IsPK || f == r.table.SoftDeleteField {
			continue
		}
		allowed[f.Name] = struct{}{}
	}
	return allowed
}

func decodeField(input, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
