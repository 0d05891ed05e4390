package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldErrors map[string]string

// FromBindError turns a gin bind/validation error into a field->message map
// keyed by the json names of dst's fields.
func FromBindError(err error, dst any) FieldErrors {
	out := FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldKey(dst, fe)] = messageForTag(fe.Tag(), fe.Param())
		}
		return out
	}

	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		out[te.Field] = "Has the wrong type."
		return out
	}

	out["_"] = "Request body is not valid JSON."
	return out
}

// fieldKey maps the validator namespace (CheckoutRequest.Items[0].Price) to
// json names (items[0].price).
func fieldKey(dst any, fe validator.FieldError) string {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		name, idx := p, ""
		if i := strings.IndexByte(p, '['); i >= 0 {
			name, idx = p[:i], p[i:]
		}
		key := strings.ToLower(name)
		if t != nil && t.Kind() == reflect.Struct {
			if f, ok := t.FieldByName(name); ok {
				key = jsonName(f)
				t = f.Type
				for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
					t = t.Elem()
				}
			} else {
				t = nil
			}
		}
		keys = append(keys, key+idx)
	}
	return strings.Join(keys, ".")
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if i := strings.Index(tag, ","); i >= 0 {
		tag = tag[:i]
	}
	if tag == "" || tag == "-" {
		return strings.ToLower(f.Name)
	}
	return tag
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Must be a valid email address."
	case "min":
		return "Must be at least " + param + "."
	case "max":
		return "Must be at most " + param + "."
	case "gte":
		return "Must be greater than or equal to " + param + "."
	case "gt":
		return "Must be greater than " + param + "."
	case "lte":
		return "Must be less than or equal to " + param + "."
	case "oneof":
		return "Must be one of: " + param + "."
	case "url", "http_url":
		return "Must be a valid URL."
	default:
		return "Invalid value."
	}
}
