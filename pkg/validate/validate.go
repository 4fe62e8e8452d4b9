// Package validate checks request payloads against `validate` struct tags
// before they are sent to the backend.
//
// Rules (comma-separated):
//
//	required        not zero or blank
//	nullable        skip the remaining rules when empty
//	min=N / max=N   string: rune length | number: value
//	gt=N / gte=N    number bounds
//	lte=N
//	alpha_dash      letters, digits, '-' and '_'
//	digits          decimal digits only
//	url             absolute http(s) URL
//	in=a|b|c        one of the listed values
//	scale=N         decimal with at most N fractional digits
//
// Numbers include decimal.Decimal, compared exactly.
//
//	type LoginInput struct {
//	    Username string `json:"username" validate:"required,min=3,max=32,alpha_dash"`
//	    Password string `json:"password" validate:"required,min=6"`
//	}
//	if err := validate.Check(in); err != nil { ... }
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Errors maps a payload field (its json name) to the first failing rule's
// message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e[f])
	}
	return strings.Join(msgs, " ")
}

// Check validates v and returns Errors, or nil when v passes.
func Check(v interface{}) error {
	if errs := Struct(v); len(errs) > 0 {
		return errs
	}
	return nil
}

// Struct validates every exported field of v carrying a `validate` tag.
// Pointer fields that are nil count as empty; non-nil ones are checked by
// their pointee.
func Struct(v interface{}) Errors {
	errs := Errors{}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		value := rv.Field(i)
		rules := strings.Split(tag, ",")

		if value.Kind() == reflect.Ptr {
			if value.IsNil() {
				if hasRule(rules, "required") {
					errs[name] = fmt.Sprintf("The %s field is required.", name)
				}
				continue
			}
			value = value.Elem()
		}

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}
		for _, rule := range rules {
			if msg := applyRule(strings.TrimSpace(rule), name, value); msg != "" {
				errs[name] = msg
				break
			}
		}
	}
	return errs
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func applyRule(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")
	raw := fmt.Sprintf("%v", v.Interface())

	switch key {
	case "", "nullable":
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
	case "url":
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Sprintf("The %s must be a valid URL.", field)
		}
	case "alpha_dash":
		for _, c := range raw {
			if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '-' && c != '_' {
				return fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", field)
			}
		}
	case "digits":
		for _, c := range raw {
			if c < '0' || c > '9' {
				return fmt.Sprintf("The %s must contain digits only.", field)
			}
		}
	case "in":
		for _, a := range strings.Split(param, "|") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "scale":
		n, ok := number(v)
		if places := int32(bound(param).IntPart()); !ok || !n.Equal(n.Truncate(places)) {
			return fmt.Sprintf("The %s may have at most %s decimal places.", field, param)
		}
	case "min", "max":
		lim := bound(param)
		if n, ok := number(v); ok {
			if key == "min" && n.LessThan(lim) {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
			if key == "max" && n.GreaterThan(lim) {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
			return ""
		}
		l := decimal.NewFromInt(int64(len([]rune(raw))))
		if key == "min" && l.LessThan(lim) {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
		if key == "max" && l.GreaterThan(lim) {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "gt", "gte", "lte":
		n, ok := number(v)
		lim := bound(param)
		switch {
		case !ok:
			return fmt.Sprintf("The %s must be a number.", field)
		case key == "gt" && !n.GreaterThan(lim):
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		case key == "gte" && n.LessThan(lim):
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		case key == "lte" && n.GreaterThan(lim):
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	default:
		return fmt.Sprintf("The %s has an unknown rule %q.", field, key)
	}
	return ""
}

// number reads ints, floats and decimal.Decimal; anything else is not a
// number.
func number(v reflect.Value) (decimal.Decimal, bool) {
	if v.Type() == decimalType {
		return v.Interface().(decimal.Decimal), true
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromInt(int64(v.Uint())), true
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(v.Float()), true
	}
	return decimal.Zero, false
}

func bound(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// isEmpty treats a zero decimal.Decimal as present: a price may be zero.
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
