package memstore

import (
	"regexp"
	"strings"
	"time"

	"github.com/crudr/crudr/pkg/query"
)

func matchesAll(row map[string]any, f *query.Filter) bool {
	if f == nil {
		return true
	}
	for _, p := range f.Predicates {
		if !matchPredicate(row, p) {
			return false
		}
	}
	return true
}

// matchPredicate follows SQL three-valued comparison semantics: a NULL value
// satisfies no operator but isnull, negated or not.
func matchPredicate(row map[string]any, p query.Predicate) bool {
	v := row[p.Field.Name]

	if p.Op == query.OpIsNull {
		return (v == nil) != p.Negated
	}
	if v == nil {
		return false
	}

	var matched bool
	switch p.Op {
	case query.OpEq:
		matched = equal(v, p.Value)
	case query.OpNe:
		matched = !equal(v, p.Value)
	case query.OpGt:
		matched = compare(v, p.Value) > 0
	case query.OpGte:
		matched = compare(v, p.Value) >= 0
	case query.OpLt:
		matched = compare(v, p.Value) < 0
	case query.OpLte:
		matched = compare(v, p.Value) <= 0
	case query.OpIn:
		for _, candidate := range p.Values {
			if equal(v, candidate) {
				matched = true
				break
			}
		}
	case query.OpLike:
		matched = likeMatch(v.(string), p.Value.(string), false)
	case query.OpILike:
		matched = likeMatch(v.(string), p.Value.(string), true)
	}

	if p.Negated {
		matched = !matched
	}
	return matched
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
		return false
	}
	return a == b
}

func compare(a, b any) int {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0
		}
		return av.Compare(bv)
	case bool:
		bv, _ := b.(bool)
		switch {
		case !av && bv:
			return -1
		case av && !bv:
			return 1
		}
		return 0
	}
	return 0
}

// likeMatch evaluates a SQL LIKE pattern: % matches any run, _ matches one
// character, everything else is literal.
func likeMatch(s, pattern string, caseInsensitive bool) bool {
	var re strings.Builder
	if caseInsensitive {
		re.WriteString("(?i)")
	}
	re.WriteString("^")
	for _, ch := range pattern {
		switch ch {
		case '%':
			re.WriteString(".*")
		case '_':
			re.WriteString(".")
		default:
			re.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	re.WriteString("$")

	matched, err := regexp.MatchString(re.String(), s)
	return err == nil && matched
}
