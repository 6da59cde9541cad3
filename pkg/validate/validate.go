// Package validate checks request payloads against `validate` struct tags.
//
// Rules are comma-separated and applied in order; the first failure is the
// one reported for the field.
//
//	required   present, not null, not blank
//	filled     a value that was sent must not be null or blank
//	nullable   a blank value skips the remaining rules
//	min=N      strings: at least N characters; numbers: at least N
//	max=N      strings: at most N characters; numbers: at most N
//	in=a|b|c   one of the listed values
//
// Optional fields absent from the payload are skipped, so a partial update
// validates only what was sent:
//
//	type ItemUpdate struct {
//	    Title       validate.Optional[string] `json:"title"       validate:"filled,min=1,max=255"`
//	    Description validate.Optional[string] `json:"description"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Errors maps a JSON field name to its first failing rule message.
type Errors map[string]string

type rule func(field, param string, v reflect.Value) string

var rules = map[string]rule{
	"required": requiredRule,
	"min":      minRule,
	"max":      maxRule,
	"in":       inRule,
}

// Struct validates the exported, tagged fields of v. A non-struct yields no
// errors.
func Struct(v any) Errors {
	errs := Errors{}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return errs
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag, ok := f.Tag.Lookup("validate")
		if !ok || !f.IsExported() {
			continue
		}
		name := fieldName(f)
		if msg := checkField(name, strings.Split(tag, ","), rv.Field(i)); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}

func HasErrors(errs Errors) bool { return len(errs) > 0 }

func checkField(name string, tags []string, v reflect.Value) string {
	required, filled := has(tags, "required"), has(tags, "filled")

	if p, ok := v.Interface().(presence); ok {
		set, null, inner := p.presence()
		if !set {
			return when(required, "The %s field is required.", name)
		}
		if null {
			return when(required || filled, "The %s field must not be null.", name)
		}
		v = reflect.ValueOf(inner)
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return when(required, "The %s field is required.", name)
		}
		v = v.Elem()
	}

	if filled && blank(v) {
		return fmt.Sprintf("The %s field is required.", name)
	}
	if has(tags, "nullable") && blank(v) {
		return ""
	}

	for _, tag := range tags {
		key, param, _ := strings.Cut(strings.TrimSpace(tag), "=")
		if fn, ok := rules[key]; ok {
			if msg := fn(name, param, v); msg != "" {
				return msg
			}
		}
	}
	return ""
}

func requiredRule(field, _ string, v reflect.Value) string {
	return when(blank(v), "The %s field is required.", field)
}

func minRule(field, param string, v reflect.Value) string {
	bound, _ := strconv.ParseFloat(param, 64)
	if n, ok := number(v); ok {
		return when(n < bound, "The %s must be at least %s.", field, param)
	}
	return when(float64(length(v)) < bound, "The %s must be at least %s characters.", field, param)
}

func maxRule(field, param string, v reflect.Value) string {
	bound, _ := strconv.ParseFloat(param, 64)
	if n, ok := number(v); ok {
		return when(n > bound, "The %s must not be greater than %s.", field, param)
	}
	return when(float64(length(v)) > bound, "The %s must not exceed %s characters.", field, param)
}

func inRule(field, param string, v reflect.Value) string {
	got := fmt.Sprint(v.Interface())
	for _, allowed := range strings.Split(param, "|") {
		if got == allowed {
			return ""
		}
	}
	return fmt.Sprintf("The selected %s is invalid.", field)
}

func when(failed bool, format string, args ...any) string {
	if !failed {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// blank treats whitespace-only strings and empty collections as missing.
// Numbers and booleans are never blank.
func blank(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func number(v reflect.Value) (float64, bool) {
	switch {
	case v.CanInt():
		return float64(v.Int()), true
	case v.CanUint():
		return float64(v.Uint()), true
	case v.CanFloat():
		return v.Float(), true
	}
	return 0, false
}

// length counts runes for strings and elements for collections.
func length(v reflect.Value) int {
	switch v.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(v.String())
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len()
	}
	return utf8.RuneCountInString(fmt.Sprint(v.Interface()))
}

func fieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

func has(tags []string, want string) bool {
	for _, t := range tags {
		if strings.TrimSpace(t) == want {
			return true
		}
	}
	return false
}
