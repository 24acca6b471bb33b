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

import (
	"fmt"
	"strings"

	"github.com/tomoncle/staffing/types"
)

// Operator is the kind of a single filter condition.
type Operator int

const (
	Equals Operator = iota + 1
	Contains
)

var _ types.BaseEnum = Operator(0)

// Operators lists every valid operator.
func Operators() []Operator { return []Operator{Equals, Contains} }

// ParseOperator resolves an operator by name, case-insensitively.
func ParseOperator(name string) (Operator, bool) {
	return types.LookupEnum(name, Operators()...)
}

func (o Operator) IsValid() bool { return o == Equals || o == Contains }

func (o Operator) Number() int {
	if !o.IsValid() {
		return types.IllegalValue
	}
	return int(o)
}

func (o Operator) Name() string {
	switch o {
	case Equals:
		return "equals"
	case Contains:
		return "contains"
	default:
		return types.IllegalName
	}
}

func (o Operator) Desc() string {
	switch o {
	case Equals:
		return "field is equal to the value"
	case Contains:
		return "field contains the value, case-sensitively"
	default:
		return types.IllegalDesc
	}
}

func (o Operator) String() string { return o.Name() }

// Condition is one filter condition on a column. A condition list is always
// combined with AND.
type Condition struct {
	Op    Operator
	Field string
	Value any
}

// Eq returns an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Op: Equals, Field: field, Value: value}
}

// Like returns a substring condition.
func Like(field, substring string) Condition {
	return Condition{Op: Contains, Field: field, Value: substring}
}

// Substring returns the raw substring of a Contains condition.
func (c Condition) Substring() string {
	s, _ := c.Value.(string)
	return s
}

// Pattern returns the substring wrapped in LIKE wildcards, with the LIKE
// metacharacters of the substring escaped by a backslash.
func (c Condition) Pattern() string {
	return "%" + likeEscaper.Replace(c.Substring()) + "%"
}

func (c Condition) String() string {
	if c.Op == Contains {
		return fmt.Sprintf("%s LIKE %q", c.Field, c.Pattern())
	}
	return fmt.Sprintf("%s = %v", c.Field, c.Value)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
