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

import (
	"github.com/tomoncle/staffing/database"
	"github.com/tomoncle/staffing/predicate"
	"github.com/uptrace/bun"
)

// Company is the inverse side of the employee relationship: its Employees
// are never written through it.
type Company struct {
	bun.BaseModel `bun:"table:company,alias:c"`

	ID             *int64      `bun:"id,pk,autoincrement" json:"id"`
	Version        int64       `bun:"version,notnull" json:"version"`
	Name           string      `bun:"name" json:"name" validate:"required,max=255"`
	PubliclyListed bool        `bun:"publicly_listed,notnull" json:"publiclyListed"`
	Employees      []*Employee `bun:"rel:has-many,join:id=company_id" json:"employees,omitempty" validate:"-"`
}

var _ Identifiable = (*Company)(nil)

func (c *Company) GetID() *int64 {
	if c == nil {
		return nil
	}
	return c.ID
}

func (c *Company) SetID(id *int64) { c.ID = id }

func (c *Company) GetVersion() int64 { return c.Version }

func (c *Company) SetVersion(version int64) { c.Version = version }

func (c *Company) EntityName() string { return "company" }

// Predicates filters on a name substring and, when set, on the listed flag.
func (c *Company) Predicates() []predicate.Condition {
	return predicate.NewBuilder().
		Contains("name", c.Name).
		IsTrue("publicly_listed", c.PubliclyListed).
		Build()
}

func (c *Company) Relations() []string { return nil }

func (c *Company) Indexes() []database.Index {
	return []database.Index{{Name: "idx_company_name", Columns: []string{"name"}}}
}

// Equal reports identity equality.
func (c *Company) Equal(other *Company) bool {
	return SameEntity(c, other)
}
