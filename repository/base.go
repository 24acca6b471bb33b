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
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/tomoncle/staffing/database"
	"github.com/tomoncle/staffing/model"
	"github.com/tomoncle/staffing/predicate"
	"github.com/tomoncle/staffing/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"
)

const defaultBatchSize = 100

type baseRepositoryImpl[T any, P model.Entity[T]] struct {
	db        bun.IDB
	batchSize int
}

// NewRepository returns a gateway for the entity type over db, which may be
// a *bun.DB or a bun.Tx.
func NewRepository[T any, P model.Entity[T]](db bun.IDB) Repository[T, P] {
	return &baseRepositoryImpl[T, P]{db: db, batchSize: defaultBatchSize}
}

func (r *baseRepositoryImpl[T, P]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T, P]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T, P]) newEntity() P { return P(new(T)) }

func (r *baseRepositoryImpl[T, P]) FindByID(ctx context.Context, id int64) (P, error) {
	entity := r.newEntity()
	entity.SetID(&id)

	q := r.db.NewSelect().Model(entity).WherePK()
	for _, rel := range entity.Relations() {
		q = q.Relation(rel)
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &types.NotFoundError{Entity: entity.EntityName(), ID: id}
		}
		return nil, storageError("find", err)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, P]) Insert(ctx context.Context, entity P) error {
	if entity.GetID() != nil {
		return fmt.Errorf("insert %s %d: entity is already persisted", entity.EntityName(), *entity.GetID())
	}
	entity.SetVersion(0)
	if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		entity.SetID(nil)
		return storageError("insert", err)
	}
	return nil
}

func (r *baseRepositoryImpl[T, P]) Update(ctx context.Context, entity P) error {
	id := entity.GetID()
	if id == nil {
		return fmt.Errorf("update %s: %w", entity.EntityName(), types.ErrMissingID)
	}

	current := entity.GetVersion()
	entity.SetVersion(current + 1)
	res, err := r.db.NewUpdate().
		Model(entity).
		WherePK().
		Where("?TableAlias.version = ?", current).
		Exec(ctx)
	if err != nil {
		entity.SetVersion(current)
		return storageError("update", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		entity.SetVersion(current)
		return storageError("update", err)
	}
	if affected > 0 {
		return nil
	}

	entity.SetVersion(current)
	exists, err := r.exists(ctx, *id)
	if err != nil {
		return err
	}
	if exists {
		return &types.ConflictError{Entity: entity.EntityName(), ID: *id, Version: current}
	}
	return &types.NotFoundError{Entity: entity.EntityName(), ID: *id}
}

func (r *baseRepositoryImpl[T, P]) Delete(ctx context.Context, entity P) error {
	id := entity.GetID()
	if id == nil {
		return fmt.Errorf("delete %s: %w", entity.EntityName(), types.ErrMissingID)
	}

	res, err := r.db.NewDelete().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return storageError("delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageError("delete", err)
	}
	if affected == 0 {
		return &types.NotFoundError{Entity: entity.EntityName(), ID: *id}
	}
	return nil
}

func (r *baseRepositoryImpl[T, P]) exists(ctx context.Context, id int64) (bool, error) {
	ok, err := r.db.NewSelect().
		Model((*T)(nil)).
		Where("?TableAlias.id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, storageError("exists", err)
	}
	return ok, nil
}

// Query reads the matches in id order, one batch at a time, with the same
// relations FindByID loads. Each batch is a fresh keyset query, so no rows
// stay open while the caller consumes the sequence.
func (r *baseRepositoryImpl[T, P]) Query(ctx context.Context, conds []predicate.Condition) iter.Seq2[P, error] {
	return func(yield func(P, error) bool) {
		var after *int64
		for {
			batch, err := r.queryBatch(ctx, conds, after)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, entity := range batch {
				if !yield(entity, nil) {
					return
				}
			}
			if len(batch) < r.batchSize {
				return
			}
			after = batch[len(batch)-1].GetID()
		}
	}
}

func (r *baseRepositoryImpl[T, P]) queryBatch(ctx context.Context, conds []predicate.Condition, after *int64) ([]P, error) {
	var batch []P
	q := r.db.NewSelect().Model(&batch).OrderExpr("?TableAlias.id ASC").Limit(r.batchSize)
	for _, rel := range r.newEntity().Relations() {
		q = q.Relation(rel)
	}
	q = applyConditions(q, conds)
	if after != nil {
		q = q.Where("?TableAlias.id > ?", *after)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, storageError("query", err)
	}
	return batch, nil
}

func (r *baseRepositoryImpl[T, P]) QueryAll(ctx context.Context, conds []predicate.Condition) ([]P, error) {
	result := make([]P, 0)
	for entity, err := range r.Query(ctx, conds) {
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	return result, nil
}

func (r *baseRepositoryImpl[T, P]) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T, P]) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &baseRepositoryImpl[T, P]{db: tx, batchSize: r.batchSize})
	})
}

// applyConditions ANDs the conditions onto q. Contains is case-sensitive on
// every dialect; SQLite LIKE is not, so it uses instr there.
func applyConditions(q *bun.SelectQuery, conds []predicate.Condition) *bun.SelectQuery {
	name := q.Dialect().Name()
	for _, c := range conds {
		col := bun.Ident(c.Field)
		switch c.Op {
		case predicate.Contains:
			switch name {
			case dialect.SQLite:
				q = q.Where("instr(?TableAlias.?, ?) > 0", col, c.Substring())
			case dialect.MySQL:
				q = q.Where("?TableAlias.? LIKE BINARY ?", col, c.Pattern())
			default:
				q = q.Where(`?TableAlias.? LIKE ? ESCAPE '\'`, col, c.Pattern())
			}
		default:
			q = q.Where("?TableAlias.? = ?", col, c.Value)
		}
	}
	return q
}

// storageError wraps a driver failure with its classified kind.
func storageError(op string, err error) error {
	_, kind := database.IsSqlError(err)
	return types.NewStorageError(op, kind.String(), err)
}
