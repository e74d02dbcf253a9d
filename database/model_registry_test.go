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
	"testing"

	"github.com/stretchr/testify/assert"
)

type gadget struct{ ID int64 }
type gizmo struct{ ID int64 }

func TestModelRegistryOrdersByPriorityAndDedupes(t *testing.T) {
	r := newModelRegistry()
	r.Register(NewModelAdapter((*gizmo)(nil), 20))
	r.Register(NewModelAdapter((*gadget)(nil), 10))
	r.Register(NewModelAdapter((*gizmo)(nil), 1))

	models := r.Models()
	assert.Len(t, models, 2)
	assert.IsType(t, (*gadget)(nil), models[0].Instance())
	assert.IsType(t, (*gizmo)(nil), models[1].Instance())
	assert.Equal(t, 20, models[1].Priority())
}
