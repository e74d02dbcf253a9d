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

// Package repository provides a generic, scope-aware repository built on Bun.
//
// A Repository[T] answers a fixed set of query intents for one entity type:
// all rows, rows matching an attribute or a list of predicates, the first
// match (optionally failing with sql.ErrNoRows), bulk update and delete by an
// attribute set, and single-row creation from a column/value mapping.
//
// Entities may declare named global scopes by implementing ScopedModel. Reads
// apply every declared scope except those suppressed with DisableGlobalScope;
// rows soft-deleted through bun's soft_delete column are excluded unless the
// call passes WithTrashed. Writes apply the declared scopes too but, by
// default, ignore suppression; see WriteScopePolicy.
package repository
