package query

import (
	"strings"

	"github.com/crudr/crudr/pkg/schema"
)

// OrderSpec is one ordering term. A sequence of them is applied in order;
// the first-listed term wins ties.
type OrderSpec struct {
	Field      schema.FieldSpec
	Descending bool
}

// CompileOrder parses a comma-separated order_by value: a leading minus on a
// segment means descending, empty segments (trailing commas) are tolerated.
// An unknown field fails with ErrBadQuery. An empty input yields nil,
// letting the handler's default order apply.
func CompileOrder(reg schema.Registry, raw string) ([]OrderSpec, error) {
	var specs []OrderSpec
	for _, segment := range strings.Split(raw, ",") {
		if segment == "" {
			continue
		}
		descending := false
		if strings.HasPrefix(segment, "-") {
			descending = true
			segment = segment[1:]
		}
		field, ok := reg.Field(segment)
		if !ok {
			return nil, ErrBadQuery
		}
		specs = append(specs, OrderSpec{Field: field, Descending: descending})
	}
	return specs, nil
}

// CompileDefaultOrder builds a handler's default ordering from statically
// declared segments, panicking on unknown fields. Meant for resource
// declarations, not request handling.
func CompileDefaultOrder(reg schema.Registry, segments ...string) []OrderSpec {
	specs, err := CompileOrder(reg, strings.Join(segments, ","))
	if err != nil {
		panic(err)
	}
	return specs
}
