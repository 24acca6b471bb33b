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
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/tomoncle/staffing/model"
	"github.com/tomoncle/staffing/types"
)

// Validator checks an entity against the configured rules. An empty map
// means the entity is valid.
type Validator interface {
	Validate(entity any) types.Violations
}

type defaultValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator builds a validator from the struct tags of the models, with
// rules overriding the tags of the fields they name.
func NewValidator(rules Rules) (Validator, error) {
	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("register translations: %w", err)
	}
	if err := v.RegisterValidation("past", isPast); err != nil {
		return nil, fmt.Errorf("register past rule: %w", err)
	}
	err := v.RegisterTranslation("past", trans,
		func(t ut.Translator) error {
			return t.Add("past", "{0} must be in the past", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("past", fe.Field())
			return msg
		})
	if err != nil {
		return nil, fmt.Errorf("register past translation: %w", err)
	}

	v.RegisterStructValidation(employeeCompany, model.Employee{})

	if err := rules.apply(v); err != nil {
		return nil, err
	}
	return &defaultValidator{validate: v, trans: trans}, nil
}

// MustNewValidator is NewValidator without rules; it panics on setup errors.
func MustNewValidator() Validator {
	v, err := NewValidator(nil)
	if err != nil {
		panic(err)
	}
	return v
}

func (d *defaultValidator) Validate(entity any) types.Violations {
	violations := types.Violations{}
	err := d.validate.Struct(entity)
	if err == nil {
		return violations
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		violations[""] = err.Error()
		return violations
	}
	for _, fe := range fieldErrors {
		violations[fieldPath(fe.Namespace())] = fe.Translate(d.trans)
	}
	return violations
}

// fieldPath drops the root struct name: "Employee.lastName" -> "lastName".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

func isPast(fl validator.FieldLevel) bool {
	switch t := fl.Field().Interface().(type) {
	case time.Time:
		return t.Before(time.Now())
	case *time.Time:
		return t == nil || t.Before(time.Now())
	}
	return false
}

// employeeCompany requires an employee to reference a persisted company.
func employeeCompany(sl validator.StructLevel) {
	e, ok := sl.Current().Interface().(model.Employee)
	if !ok {
		return
	}
	if e.Company.GetID() == nil {
		sl.ReportError(e.Company, "company", "Company", "required", "")
	}
}
