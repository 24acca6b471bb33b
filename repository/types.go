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
	"context"
	"iter"

	"github.com/tomoncle/staffing/model"
	"github.com/tomoncle/staffing/predicate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// CrudRepository defines the identity based operations of an entity type.
type CrudRepository[T any, P model.Entity[T]] interface {
	// FindByID returns a *types.NotFoundError when no row has the id.
	FindByID(ctx context.Context, id int64) (P, error)

	// Insert stores a transient entity with version 0 and assigns its id.
	Insert(ctx context.Context, entity P) error

	// Update writes the entity if its version is still current and advances
	// the version by one. A stale version yields *types.ConflictError.
	Update(ctx context.Context, entity P) error

	// Delete removes the entity by identity.
	Delete(ctx context.Context, entity P) error
}

// QueryRepository executes condition lists combined with AND.
type QueryRepository[T any, P model.Entity[T]] interface {
	// Query streams the matching rows ordered by id. Every range over the
	// returned sequence runs the query again.
	Query(ctx context.Context, conds []predicate.Condition) iter.Seq2[P, error]

	QueryAll(ctx context.Context, conds []predicate.Condition) ([]P, error)
}

// TransactionRepository runs several operations atomically.
type TransactionRepository[T any, P model.Entity[T]] interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T, P]) error) error
}

// Repository is the persistence gateway of one entity type.
type Repository[T any, P model.Entity[T]] interface {
	CrudRepository[T, P]
	QueryRepository[T, P]
	TransactionRepository[T, P]
	Dialect() schema.Dialect
	DB() bun.IDB
}
