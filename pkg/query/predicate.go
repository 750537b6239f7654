// Package query implements the filter translation engine: it parses untyped
// URL query parameters into typed predicates, ordering and pagination specs,
// and assembles them into one executable query request for a store.
//
// All parse failures collapse into ErrBadQuery. Which token failed, and why,
// is deliberately not reported to callers so that schema internals never
// leak through error messages.
package query

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/crudr/crudr/pkg/schema"
)

// ErrBadQuery is returned for any malformed filter, order or pagination
// token. Its text is the exact message exposed to API clients.
var ErrBadQuery = errors.New("Bad query arguments")

// Operator is a filter comparison operator.
type Operator string

const (
	OpEq     Operator = "eq"
	OpNe     Operator = "ne"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpIn     Operator = "in"
	OpIsNull Operator = "isnull"
	OpLike   Operator = "like"
	OpILike  Operator = "ilike"
)

var operators = map[string]Operator{
	"eq":     OpEq,
	"ne":     OpNe,
	"gt":     OpGt,
	"gte":    OpGte,
	"lt":     OpLt,
	"lte":    OpLte,
	"in":     OpIn,
	"isnull": OpIsNull,
	"like":   OpLike,
	"ilike":  OpILike,
}

// Predicate is one typed field-level condition. Immutable after creation.
type Predicate struct {
	Field   schema.FieldSpec
	Op      Operator
	Value   any   // scalar operand, nil for isnull
	Values  []any // membership set for in
	Negated bool
}

// ParsePredicate turns one query token into a predicate. The key grammar is
// [-]field[__op]; the operator defaults to eq. The raw value is coerced to
// the field's kind. Any failure yields ErrBadQuery.
//
// like/ilike apply to text fields only; applying them to any other kind is
// rejected rather than coerced.
func ParsePredicate(reg schema.Registry, key, raw string) (Predicate, error) {
	negated := false
	if strings.HasPrefix(key, "-") {
		negated = true
		key = key[1:]
	}

	name := key
	op := OpEq
	if i := strings.LastIndex(key, "__"); i >= 0 {
		known, ok := operators[key[i+2:]]
		if !ok {
			return Predicate{}, ErrBadQuery
		}
		name, op = key[:i], known
	}

	field, ok := reg.Field(name)
	if !ok {
		return Predicate{}, ErrBadQuery
	}

	p := Predicate{Field: field, Op: op, Negated: negated}
	switch op {
	case OpIsNull:
		// Presence of the key is the whole signal; the operand is ignored.
		return p, nil
	case OpLike, OpILike:
		if field.Kind != schema.KindText {
			return Predicate{}, ErrBadQuery
		}
		p.Value = raw
		return p, nil
	case OpIn:
		values, err := coerceList(field.Kind, raw)
		if err != nil {
			return Predicate{}, ErrBadQuery
		}
		p.Values = values
		return p, nil
	default:
		v, err := coerce(field.Kind, raw)
		if err != nil {
			return Predicate{}, ErrBadQuery
		}
		p.Value = v
		return p, nil
	}
}

// CoerceValue converts a raw string to the Go value for a field kind:
// int64 for integer and foreign_key, time.Time for datetime, bool for
// boolean, the string itself for text.
func CoerceValue(kind schema.FieldKind, raw string) (any, error) {
	return coerce(kind, raw)
}

// coerce converts a raw string operand to the field kind's Go type.
func coerce(kind schema.FieldKind, raw string) (any, error) {
	switch kind {
	case schema.KindInteger, schema.KindForeignKey:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, ErrBadQuery
		}
		return n, nil
	case schema.KindDatetime:
		return parseDatetime(raw)
	case schema.KindBoolean:
		switch raw {
		case "1", "t", "true":
			return true, nil
		case "0", "f", "false":
			return false, nil
		default:
			return nil, ErrBadQuery
		}
	default:
		return raw, nil
	}
}

// coerceList splits an in-operand on commas and coerces each element.
// An empty raw string yields an empty set, which matches no rows.
func coerceList(kind schema.FieldKind, raw string) ([]any, error) {
	if raw == "" {
		return []any{}, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]any, 0, len(parts))
	for _, part := range parts {
		v, err := coerce(kind, part)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// datetime operands accept a date or a date with time, with single-digit
// components tolerated: 2016-9-15 or 2016-9-15 23:59:59. Parsed as UTC.
var datetimeLayouts = []string{"2006-1-2 15:4:5", "2006-1-2"}

func parseDatetime(raw string) (any, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return nil, ErrBadQuery
}
