package wordpress

import (
	"reflect"
	"strings"
	"time"
	"unicode"
)

// FieldsOf converts a struct into a Pods field map. Keys come from the
// `wp:"name"` tag or the snake_case field name; `wp:"-"` skips a field and
// `wp:",omitempty"` drops zero values. Embedded structs are flattened.
func FieldsOf[T any](value T) map[string]any {
	result := make(map[string]any)
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return result
		}
		v = v.Elem()
	}

	appendFields(v, result)
	return result
}

func appendFields(v reflect.Value, result map[string]any) {
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)
		if field.Anonymous && value.Kind() == reflect.Struct {
			appendFields(value, result)
			continue
		}
		if !field.IsExported() {
			continue
		}

		key, omitEmpty, skip := parseFieldTag(field)
		if skip {
			continue
		}
		if omitEmpty && value.IsZero() {
			continue
		}

		result[key] = fieldValue(value)
	}
}

func parseFieldTag(field reflect.StructField) (key string, omitEmpty, skip bool) {
	tag := field.Tag.Get("wp")
	if tag == "-" {
		return "", false, true
	}

	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = toSnakeCase(field.Name)
	}
	return name, opts == "omitempty", false
}

func fieldValue(value reflect.Value) any {
	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	if t, ok := value.Interface().(time.Time); ok {
		return t.Format("2006-01-02")
	}
	return value.Interface()
}

func toSnakeCase(input string) string {
	runes := []rune(input)
	var builder strings.Builder
	builder.Grow(len(runes) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				builder.WriteRune('_')
			}
		}
		builder.WriteRune(unicode.ToLower(r))
	}

	return builder.String()
}
