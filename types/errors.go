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
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors matched with errors.Is by callers that only care about the
// failure class.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("entity not found")
	ErrConflict   = errors.New("optimistic lock conflict")
	ErrStorage    = errors.New("storage failure")
	ErrMissingID  = errors.New("entity has no identity")
)

// Violations maps a field path to a human-readable violation message.
type Violations map[string]string

// Fields returns the violated field paths in sorted order.
func (v Violations) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// ValidationError carries the violations that prevented a write.
type ValidationError struct {
	Violations Violations
}

// NewValidationError wraps the violation map.
func NewValidationError(v Violations) *ValidationError {
	return &ValidationError{Violations: v}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, f := range e.Violations.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Violations[f]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports that no entity of the given kind has the identity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a stale version on update. The caller may re-read
// the entity and retry.
type ConflictError struct {
	Entity  string
	ID      int64
	Version int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d: version %d is stale", e.Entity, e.ID, e.Version)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StorageError wraps an unexpected backend failure. Kind names the
// classified SQL error when the driver error could be recognized.
type StorageError struct {
	Op   string
	Kind string
	Err  error
}

// NewStorageError wraps err for the named operation.
func NewStorageError(op, kind string, err error) *StorageError {
	return &StorageError{Op: op, Kind: kind, Err: err}
}

func (e *StorageError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
