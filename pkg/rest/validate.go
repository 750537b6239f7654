package rest

import (
	"fmt"
	"math"
	"time"

	"github.com/crudr/crudr/pkg/schema"
)

// validateBody checks a decoded JSON object against the model's field
// registry: no unknown fields, required fields present, values compatible
// with the field kind. Full JSON-schema validation belongs to an outer
// collaborator; this is the floor every body must clear before reaching the
// store.
func validateBody(m *schema.Model, data map[string]any, required []string) error {
	for _, name := range required {
		if _, ok := data[name]; !ok {
			return fmt.Errorf("missing required field %s", name)
		}
	}
	for key, value := range data {
		field, ok := m.Field(key)
		if !ok {
			return fmt.Errorf("unknown field %s", key)
		}
		if value == nil {
			if !field.Nullable {
				return fmt.Errorf("field %s is not nullable", key)
			}
			continue
		}
		if err := checkKind(field.Kind, value); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

var bodyDatetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func checkKind(kind schema.FieldKind, value any) error {
	switch kind {
	case schema.KindInteger, schema.KindForeignKey:
		// encoding/json decodes all numbers to float64.
		n, ok := value.(float64)
		if !ok || n != math.Trunc(n) {
			return fmt.Errorf("not an integer")
		}
	case schema.KindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("not a boolean")
		}
	case schema.KindDatetime:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("not a datetime string")
		}
		if _, err := parseBodyDatetime(s); err != nil {
			return err
		}
	default:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("not a string")
		}
	}
	return nil
}

func parseBodyDatetime(s string) (time.Time, error) {
	for _, layout := range bodyDatetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime %q", s)
}
