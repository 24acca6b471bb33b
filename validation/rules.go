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
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/tomoncle/staffing/model"
	"gopkg.in/yaml.v3"
)

// Rules maps an entity name to Go field names and their validator rule
// strings, for example:
//
//	company:
//	  Name: required,max=100
type Rules map[string]map[string]string

var ruleTargets = map[string]any{
	"company":  model.Company{},
	"employee": model.Employee{},
}

// LoadRules reads a YAML rules file. An empty path yields no rules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read validation rules: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse validation rules %s: %w", path, err)
	}
	return rules, nil
}

func (r Rules) apply(v *validator.Validate) error {
	entities := make([]string, 0, len(r))
	for entity := range r {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	for _, entity := range entities {
		target, ok := ruleTargets[entity]
		if !ok {
			return fmt.Errorf("validation rules: unknown entity %q", entity)
		}
		typ := reflect.TypeOf(target)
		for field := range r[entity] {
			if _, ok := typ.FieldByName(field); !ok {
				return fmt.Errorf("validation rules: %s has no field %q", entity, field)
			}
		}
		v.RegisterStructValidationMapRules(r[entity], target)
	}
	return nil
}
