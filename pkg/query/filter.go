package query

import (
	"net/url"
	"sort"

	"github.com/crudr/crudr/pkg/schema"
)

// Reserved control keys that are never treated as filter tokens.
var reservedKeys = map[string]bool{
	"limit":    true,
	"offset":   true,
	"order_by": true,
	"total":    true,
}

// IsReserved reports whether a query key is a control key rather than a
// filter token.
func IsReserved(key string) bool {
	return reservedKeys[key]
}

// Filter is the conjunction of predicates applied to a query. Every
// predicate constrains the result; there is no OR combination.
type Filter struct {
	Predicates []Predicate
}

// Compile parses every non-reserved query key into a predicate and appends
// the handler's default predicates. Defaults always apply: a request token
// on the same field and operator narrows the result further, it does not
// replace the default.
//
// Compilation fails fast: the first malformed token aborts with ErrBadQuery.
func Compile(reg schema.Registry, values url.Values, defaults *Filter) (*Filter, error) {
	f := &Filter{}
	if defaults != nil {
		f.Predicates = append(f.Predicates, defaults.Predicates...)
	}

	// Deterministic order for stable SQL text and stable tests.
	keys := make([]string, 0, len(values))
	for key := range values {
		if reservedKeys[key] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, raw := range values[key] {
			p, err := ParsePredicate(reg, key, raw)
			if err != nil {
				return nil, err
			}
			f.Predicates = append(f.Predicates, p)
		}
	}
	return f, nil
}

// CompileDefaults builds a handler's default filter from statically declared
// tokens. It is meant to run at registration time; errors here are
// programming errors, not request errors.
func CompileDefaults(reg schema.Registry, tokens map[string]string) (*Filter, error) {
	values := make(url.Values, len(tokens))
	for key, raw := range tokens {
		values.Set(key, raw)
	}
	return Compile(reg, values, nil)
}

// MustCompileDefaults is CompileDefaults panicking on error, for static
// resource declarations.
func MustCompileDefaults(reg schema.Registry, tokens map[string]string) *Filter {
	f, err := CompileDefaults(reg, tokens)
	if err != nil {
		panic(err)
	}
	return f
}
