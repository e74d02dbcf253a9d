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

import "github.com/tomoncle/bunrepo/database"

// WriteScopePolicy decides how UpdateBy, DeleteBy and RestoreBy treat
// suppressed global scopes.
type WriteScopePolicy int

const (
	// WriteScopesIgnoreSuppression applies every declared scope to writes,
	// even those disabled with DisableGlobalScope. This is the default.
	WriteScopesIgnoreSuppression WriteScopePolicy = iota
	// WriteScopesHonorSuppression skips disabled scopes on writes, matching reads.
	WriteScopesHonorSuppression
)

type options struct {
	writeScopes WriteScopePolicy
	scopes      []GlobalScope
	logger      database.Logger
}

type Option func(*options)

func WithWriteScopePolicy(policy WriteScopePolicy) Option {
	return func(o *options) { o.writeScopes = policy }
}

// WithGlobalScope declares a scope in addition to those of the model. It
// replaces a model scope of the same name.
func WithGlobalScope(name string, fn ScopeFunc) Option {
	return func(o *options) { o.scopes = append(o.scopes, GlobalScope{Name: name, Apply: fn}) }
}

func WithLogger(logger database.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type readOptions struct {
	comparator  string
	withTrashed bool
}

// ReadOption tunes a single read call.
type ReadOption func(*readOptions)

// CompareWith sets the comparator used by predicates that do not name one.
func CompareWith(comparator string) ReadOption {
	return func(o *readOptions) { o.comparator = comparator }
}

// WithTrashed includes soft-deleted rows. It has no effect on models without
// a soft_delete column.
func WithTrashed() ReadOption {
	return func(o *readOptions) { o.withTrashed = true }
}

func newReadOptions(opts []ReadOption) readOptions {
	ro := readOptions{comparator: CompareEqual}
	for _, opt := range opts {
		opt(&ro)
	}
	return ro
}
