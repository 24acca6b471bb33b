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

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		others   []error
	}{
		{"validation", NewValidationError(Violations{"name": "required"}), ErrValidation, []error{ErrNotFound, ErrConflict}},
		{"not found", &NotFoundError{Entity: "company", ID: 1}, ErrNotFound, []error{ErrConflict, ErrStorage}},
		{"conflict", &ConflictError{Entity: "company", ID: 1, Version: 2}, ErrConflict, []error{ErrNotFound, ErrStorage}},
		{"storage", NewStorageError("insert", "unknown", sql.ErrConnDone), ErrStorage, []error{ErrNotFound, ErrConflict}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("request: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			for _, other := range tt.others {
				assert.False(t, errors.Is(wrapped, other))
			}
		})
	}
}

func TestStorageErrorUnwrapsDriverError(t *testing.T) {
	err := NewStorageError("update", "duplicate_key", sql.ErrTxDone)
	assert.ErrorIs(t, err, sql.ErrTxDone)
	assert.Equal(t, "update failed (duplicate_key): sql: transaction has already been committed or rolled back", err.Error())
	assert.Equal(t, "find failed: boom", NewStorageError("find", "", errors.New("boom")).Error())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "company 7 not found", (&NotFoundError{Entity: "company", ID: 7}).Error())
	assert.Equal(t, "employee 3: version 1 is stale", (&ConflictError{Entity: "employee", ID: 3, Version: 1}).Error())

	v := NewValidationError(Violations{"salary": "too low", "lastName": "required"})
	assert.Equal(t, []string{"lastName", "salary"}, v.Violations.Fields())
	assert.Equal(t, "validation failed: lastName: required; salary: too low", v.Error())
}

type color int

func (c color) IsValid() bool  { return c == 1 || c == 2 }
func (c color) Number() int    { return int(c) }
func (c color) String() string { return c.Name() }
func (c color) Desc() string   { return c.Name() }
func (c color) Name() string {
	switch c {
	case 1:
		return "red"
	case 2:
		return "blue"
	}
	return IllegalName
}

func TestLookupEnum(t *testing.T) {
	got, ok := LookupEnum(" BLUE ", color(1), color(2))
	assert.True(t, ok)
	assert.Equal(t, color(2), got)

	_, ok = LookupEnum("green", color(1), color(2))
	assert.False(t, ok)
}
