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
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

const (
	CompareEqual = "="
	CompareIn    = "IN"
	CompareNotIn = "NOT IN"
)

// Predicate is one (attribute, value, comparator) filter. An empty Comparator
// falls back to the comparator of the call (see CompareWith), then to "=".
type Predicate struct {
	Attribute  string
	Value      interface{}
	Comparator string
}

func Eq(attribute string, value interface{}) Predicate {
	return Predicate{Attribute: attribute, Value: value, Comparator: CompareEqual}
}

// In matches rows whose attribute is a member of values. A scalar is treated
// as a one-element set.
func In(attribute string, values interface{}) Predicate {
	return Predicate{Attribute: attribute, Value: values, Comparator: CompareIn}
}

// Cond builds a predicate with any comparator the SQL dialect accepts, such as
// "LIKE", ">" or "<>". The comparator is not validated.
func Cond(attribute string, comparator string, value interface{}) Predicate {
	return Predicate{Attribute: attribute, Value: value, Comparator: comparator}
}

// Where returns a predicate without comparator, resolved per call.
func Where(attribute string, value interface{}) Predicate {
	return Predicate{Attribute: attribute, Value: value}
}

func (p Predicate) comparator(fallback string) string {
	op := strings.TrimSpace(p.Comparator)
	if op == "" {
		op = strings.TrimSpace(fallback)
	}
	if op == "" {
		op = CompareEqual
	}
	return op
}

func (p Predicate) apply(qb bun.QueryBuilder, fallback string) bun.QueryBuilder {
	op := p.comparator(fallback)
	column := bun.Ident(p.Attribute)

	switch strings.ToUpper(op) {
	case CompareIn:
		set := normalizeSet(p.Value)
		if len(set) == 0 {
			return qb.Where("1 = 0")
		}
		return qb.Where("? IN (?)", column, bun.In(set))
	case CompareNotIn:
		set := normalizeSet(p.Value)
		if len(set) == 0 {
			return qb
		}
		return qb.Where("? NOT IN (?)", column, bun.In(set))
	}

	if isNil(p.Value) {
		switch op {
		case "=":
			return qb.Where("? IS NULL", column)
		case "!=", "<>":
			return qb.Where("? IS NOT NULL", column)
		}
	}
	return qb.Where("? "+op+" ?", column, p.Value)
}

func applyPredicates(qb bun.QueryBuilder, params []Predicate, fallback string) bun.QueryBuilder {
	for _, p := range params {
		qb = p.apply(qb, fallback)
	}
	return qb
}

// normalizeSet wraps a scalar into a one-element set and flattens slices,
// arrays and map values. Map values are taken in key order. []byte is a
// scalar; nil, including a typed nil pointer, is the empty set.
func normalizeSet(value interface{}) []interface{} {
	if isNil(value) {
		return []interface{}{}
	}
	if set, ok := value.([]interface{}); ok {
		return set
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return []interface{}{value}
		}
	case reflect.Array:
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		set := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			set = append(set, rv.MapIndex(k).Interface())
		}
		return set
	default:
		return []interface{}{value}
	}
	set := make([]interface{}, rv.Len())
	for i := range set {
		set[i] = rv.Index(i).Interface()
	}
	return set
}

// isNil reports untyped nil and nil pointers, maps, slices and interfaces.
func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
