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

package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/staffing/model"
	"github.com/tomoncle/staffing/types"
)

func TestCompanyRules(t *testing.T) {
	v := MustNewValidator()

	tests := []struct {
		name    string
		company *model.Company
		want    []string
	}{
		{"valid", &model.Company{Name: "Acme"}, nil},
		{"missing name", &model.Company{}, []string{"name"}},
		{"name too long", &model.Company{Name: strings.Repeat("x", 256)}, []string{"name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.company)
			assert.NotNil(t, got)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got.Fields())
		})
	}
}

func TestEmployeeRules(t *testing.T) {
	v := MustNewValidator()
	past := time.Now().AddDate(-30, 0, 0)
	future := time.Now().Add(48 * time.Hour)
	acme := &model.Company{ID: model.ID(1)}

	tests := []struct {
		name     string
		employee *model.Employee
		want     types.Violations
	}{
		{
			name:     "valid",
			employee: &model.Employee{LastName: "Lee", Salary: 10, DateOfBirth: &past, Company: acme},
			want:     types.Violations{},
		},
		{
			name:     "missing company",
			employee: &model.Employee{LastName: "Lee"},
			want:     types.Violations{"company": "company is a required field"},
		},
		{
			name:     "transient company",
			employee: &model.Employee{LastName: "Lee", Company: &model.Company{Name: "new"}},
			want:     types.Violations{"company": "company is a required field"},
		},
		{
			name:     "future birthday",
			employee: &model.Employee{LastName: "Lee", DateOfBirth: &future, Company: acme},
			want:     types.Violations{"dateOfBirth": "dateOfBirth must be in the past"},
		},
		{
			name:     "negative salary and no last name",
			employee: &model.Employee{Salary: -1, Company: acme},
			want: types.Violations{
				"lastName": "lastName is a required field",
				"salary":   "salary must be 0 or greater",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.employee))
		})
	}
}

func TestNilEntity(t *testing.T) {
	got := MustNewValidator().Validate(nil)
	assert.Contains(t, got, "")
}

func TestRulesOverrideTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation.yaml")
	require.NoError(t, os.WriteFile(path, []byte("company:\n  Name: required,max=3\n"), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	v, err := NewValidator(rules)
	require.NoError(t, err)

	assert.Equal(t, []string{"name"}, v.Validate(&model.Company{Name: "Acme"}).Fields())
	assert.Empty(t, v.Validate(&model.Company{Name: "Acm"}))
	// untouched entities keep their tags
	assert.Equal(t, []string{"lastName"}, v.Validate(&model.Employee{Company: &model.Company{ID: model.ID(1)}}).Fields())
}

func TestRulesRejectUnknownTargets(t *testing.T) {
	_, err := NewValidator(Rules{"department": {"Name": "required"}})
	require.Error(t, err)

	_, err = NewValidator(Rules{"company": {"Title": "required"}})
	require.Error(t, err)

	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "lastName", fieldPath("Employee.lastName"))
	assert.Equal(t, "company.name", fieldPath("Employee.company.name"))
	assert.Equal(t, "name", fieldPath("name"))
}
