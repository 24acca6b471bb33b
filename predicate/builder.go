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

package predicate

import "strings"

// Builder collects the conditions derived from an example entity. Unset
// fields (blank text, false flags, nil references) add nothing.
type Builder struct {
	conditions []Condition
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{conditions: make([]Condition, 0, 4)}
}

// Contains adds a substring condition unless value is empty or only
// whitespace. The value itself is not trimmed.
func (b *Builder) Contains(field, value string) *Builder {
	if strings.TrimSpace(value) != "" {
		b.conditions = append(b.conditions, Like(field, value))
	}
	return b
}

// IsTrue adds field = true when flag is set. A false flag cannot be told
// apart from an unset one, so it never filters.
func (b *Builder) IsTrue(field string, flag bool) *Builder {
	if flag {
		b.conditions = append(b.conditions, Eq(field, true))
	}
	return b
}

// Equals adds an equality condition when value is non-nil.
func (b *Builder) Equals(field string, value *int64) *Builder {
	if value != nil {
		b.conditions = append(b.conditions, Eq(field, *value))
	}
	return b
}

// Build returns the collected conditions in insertion order.
func (b *Builder) Build() []Condition {
	out := make([]Condition, len(b.conditions))
	copy(out, b.conditions)
	return out
}
