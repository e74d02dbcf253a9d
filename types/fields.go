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

package types

import "sort"

// Fields maps column names to values for create and bulk update statements.
type Fields map[string]interface{}

// Columns returns the column names in ascending order so that generated SQL
// is stable across calls.
func (f Fields) Columns() []string {
	columns := make([]string, 0, len(f))
	for k := range f {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

// Has reports whether the column is present.
func (f Fields) Has(column string) bool {
	_, ok := f[column]
	return ok
}
