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
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tomoncle/staffing/database"
	"github.com/tomoncle/staffing/predicate"
	"github.com/uptrace/bun"
)

// Employee owns the reference to exactly one Company but not its lifecycle.
type Employee struct {
	bun.BaseModel `bun:"table:employee,alias:e"`

	ID          *int64     `bun:"id,pk,autoincrement" json:"id"`
	Version     int64      `bun:"version,notnull" json:"version"`
	FirstName   string     `bun:"first_name" json:"firstName" validate:"max=100"`
	LastName    string     `bun:"last_name" json:"lastName" validate:"required,max=100"`
	DateOfBirth *time.Time `bun:"date_of_birth" json:"dateOfBirth,omitempty" validate:"omitempty,past"`
	Salary      int        `bun:"salary,notnull" json:"salary" validate:"min=0"`
	CompanyID   *int64     `bun:"company_id,notnull" json:"-" validate:"-"`
	Company     *Company   `bun:"rel:belongs-to,join:company_id=id" json:"company,omitempty" validate:"-"`
}

var (
	_ Identifiable              = (*Employee)(nil)
	_ bun.BeforeAppendModelHook = (*Employee)(nil)
	_ bun.AfterScanRowHook      = (*Employee)(nil)
)

func (e *Employee) GetID() *int64 {
	if e == nil {
		return nil
	}
	return e.ID
}

func (e *Employee) SetID(id *int64) { e.ID = id }

func (e *Employee) GetVersion() int64 { return e.Version }

func (e *Employee) SetVersion(version int64) { e.Version = version }

func (e *Employee) EntityName() string { return "employee" }

// Predicates filters on name substrings and on the owning company when the
// example references one by id.
func (e *Employee) Predicates() []predicate.Condition {
	return predicate.NewBuilder().
		Contains("first_name", e.FirstName).
		Contains("last_name", e.LastName).
		Equals("company_id", e.Company.GetID()).
		Build()
}

func (e *Employee) Relations() []string { return []string{"Company"} }

func (e *Employee) Indexes() []database.Index {
	return []database.Index{
		{Name: "idx_employee_last_name", Columns: []string{"last_name"}},
		{Name: "idx_employee_company_id", Columns: []string{"company_id"}},
	}
}

// Equal reports identity equality.
func (e *Employee) Equal(other *Employee) bool {
	return SameEntity(e, other)
}

// BeforeAppendModel copies the referenced company id into the owning column
// on writes.
func (e *Employee) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		if e.Company != nil {
			e.CompanyID = e.Company.ID
		}
	}
	return nil
}

// AfterScanRow leaves an id-only company reference when the row was read
// without joining the company.
func (e *Employee) AfterScanRow(ctx context.Context) error {
	if e.Company == nil && e.CompanyID != nil {
		id := *e.CompanyID
		e.Company = &Company{ID: &id}
	}
	return nil
}

func (e *Employee) String() string {
	var b strings.Builder
	if strings.TrimSpace(e.FirstName) != "" {
		b.WriteString(e.FirstName)
	}
	if strings.TrimSpace(e.LastName) != "" {
		b.WriteString(" ")
		b.WriteString(e.LastName)
	}
	b.WriteString(" ")
	b.WriteString(strconv.Itoa(e.Salary))
	return b.String()
}
