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
	"sort"

	"github.com/uptrace/bun"
)

// ScopeFunc adds conditions to a select, update or delete query.
type ScopeFunc func(bun.QueryBuilder) bun.QueryBuilder

// GlobalScope is a named filter applied to every query for an entity type
// unless suppressed.
type GlobalScope struct {
	Name  string
	Apply ScopeFunc
}

// ScopedModel is implemented by entities that declare global scopes.
//
//	func (*Account) GlobalScopes() []repository.GlobalScope {
//		return []repository.GlobalScope{{
//			Name: "active",
//			Apply: func(q bun.QueryBuilder) bun.QueryBuilder {
//				return q.Where("is_active = ?", true)
//			},
//		}}
//	}
type ScopedModel interface {
	GlobalScopes() []GlobalScope
}

// FillableModel restricts the columns Create accepts.
type FillableModel interface {
	Fillable() []string
}

// declaredScopes collects scopes from the model and then from options; a
// later scope replaces an earlier one with the same name.
func declaredScopes[T any](extra []GlobalScope) []GlobalScope {
	var scopes []GlobalScope
	if m, ok := any(new(T)).(ScopedModel); ok {
		scopes = append(scopes, m.GlobalScopes()...)
	}
	scopes = append(scopes, extra...)

	index := make(map[string]int, len(scopes))
	result := make([]GlobalScope, 0, len(scopes))
	for _, s := range scopes {
		if s.Apply == nil {
			continue
		}
		if i, ok := index[s.Name]; ok {
			result[i] = s
			continue
		}
		index[s.Name] = len(result)
		result = append(result, s)
	}
	return result
}

type scopeSet map[string]struct{}

func (s scopeSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s scopeSet) names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyScopes wraps each scope in its own group so an OR inside a scope cannot
// widen the caller's predicates.
func applyScopes(qb bun.QueryBuilder, scopes []GlobalScope) bun.QueryBuilder {
	for _, s := range scopes {
		qb = qb.WhereGroup(" AND ", func(q bun.QueryBuilder) bun.QueryBuilder {
			return s.Apply(q)
		})
	}
	return qb
}
