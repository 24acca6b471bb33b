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

package staffing

import (
	"context"

	"github.com/tomoncle/staffing/database"
	"github.com/tomoncle/staffing/model"
	"github.com/tomoncle/staffing/predicate"
	"github.com/tomoncle/staffing/repository"
	"github.com/tomoncle/staffing/types"
	"github.com/tomoncle/staffing/utils"
	"github.com/tomoncle/staffing/validation"
)

var logger = utils.NewLogger("SERVICE")

// NullPayloadMessage is reported under the empty field path when a write
// carries no entity.
const NullPayloadMessage = "payload must not be null"

type Service[T any, P model.Entity[T]] interface {
	// Retrieve returns the entity with the id or a *types.NotFoundError.
	Retrieve(ctx context.Context, id int64) (P, error)

	// Create persists a transient entity; it is Update without an id.
	Create(ctx context.Context, entity P) (P, error)

	// Update validates the entity and persists it under id, inserting when id
	// is nil. The id argument replaces any id carried by the entity.
	Update(ctx context.Context, id *int64, entity P) (P, error)

	// Delete retrieves the entity and removes it.
	Delete(ctx context.Context, id int64) error

	// Search lists the entities matching the non-empty fields of example.
	Search(ctx context.Context, example P) ([]P, error)

	// ListAll is Search without an example.
	ListAll(ctx context.Context) ([]P, error)
}

type baseServiceImpl[T any, P model.Entity[T]] struct {
	repo      repository.Repository[T, P]
	validator validation.Validator
}

// NewService returns a Service over repo. It holds no other state, so one
// instance per request is cheap.
func NewService[T any, P model.Entity[T]](repo repository.Repository[T, P], validator validation.Validator) Service[T, P] {
	return &baseServiceImpl[T, P]{repo: repo, validator: validator}
}

// NewDefaultService uses the global database and the tag based rules.
func NewDefaultService[T any, P model.Entity[T]]() Service[T, P] {
	return NewService(repository.NewRepository[T, P](database.GetDB()), validation.MustNewValidator())
}

func (s *baseServiceImpl[T, P]) Retrieve(ctx context.Context, id int64) (P, error) {
	logger.Debugf("retrieve %d", id)
	return s.repo.FindByID(ctx, id)
}

func (s *baseServiceImpl[T, P]) Create(ctx context.Context, entity P) (P, error) {
	return s.Update(ctx, nil, entity)
}

func (s *baseServiceImpl[T, P]) Update(ctx context.Context, id *int64, entity P) (P, error) {
	if entity == nil {
		return nil, types.NewValidationError(types.Violations{"": NullPayloadMessage})
	}
	entity.SetID(id)
	logger.WithField("entity", entity.EntityName()).Debugf("update %v", formatID(id))

	if violations := s.validator.Validate(entity); len(violations) > 0 {
		logger.WithField("fields", violations.Fields()).Debug("rejected invalid entity")
		return nil, types.NewValidationError(violations)
	}

	if id == nil {
		if err := s.repo.Insert(ctx, entity); err != nil {
			return nil, err
		}
		return entity, nil
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *baseServiceImpl[T, P]) Delete(ctx context.Context, id int64) error {
	logger.Debugf("delete %d", id)
	return s.repo.RunInTx(ctx, func(ctx context.Context, repo repository.Repository[T, P]) error {
		entity, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, entity)
	})
}

func (s *baseServiceImpl[T, P]) Search(ctx context.Context, example P) ([]P, error) {
	var conds []predicate.Condition
	if example != nil {
		conds = example.Predicates()
	}
	logger.WithField("conditions", len(conds)).Debug("search")
	return s.repo.QueryAll(ctx, conds)
}

func (s *baseServiceImpl[T, P]) ListAll(ctx context.Context) ([]P, error) {
	return s.Search(ctx, nil)
}

func formatID(id *int64) any {
	if id == nil {
		return "new"
	}
	return *id
}
