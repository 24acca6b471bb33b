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

package model

import "github.com/tomoncle/staffing/predicate"

// Identifiable is the lifecycle contract shared by every persistent entity.
type Identifiable interface {
	// GetID returns nil until the entity has been persisted.
	GetID() *int64
	SetID(id *int64)

	// GetVersion returns the optimistic lock counter.
	GetVersion() int64
	SetVersion(version int64)

	// EntityName is used in error messages and logs.
	EntityName() string

	// Predicates derives search conditions from the entity used as an example.
	Predicates() []predicate.Condition

	// Relations lists the bun relations loaded on single-entity reads.
	Relations() []string
}

// Entity constrains generic code to pointer-to-struct entity types.
type Entity[T any] interface {
	*T
	Identifiable
}

// SameEntity reports identity equality: two persisted entities are equal when
// their ids match, otherwise only the same instance equals itself.
func SameEntity(a, b Identifiable) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.EntityName() != b.EntityName() {
		return false
	}
	aid, bid := a.GetID(), b.GetID()
	if aid != nil && bid != nil {
		return *aid == *bid
	}
	return false
}

// ID is a convenience for building *int64 identities.
func ID(v int64) *int64 { return &v }
