package pgstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/crudr/crudr/pkg/query"
	"github.com/crudr/crudr/pkg/schema"
)

var opSQL = map[query.Operator]string{
	query.OpEq:    "=",
	query.OpNe:    "<>",
	query.OpGt:    ">",
	query.OpGte:   ">=",
	query.OpLt:    "<",
	query.OpLte:   "<=",
	query.OpLike:  "LIKE",
	query.OpILike: "ILIKE",
}

// builder accumulates SQL text and positional args.
type builder struct {
	sql  strings.Builder
	args []any
}

func (b *builder) placeholder(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func ident(parts ...string) string {
	return pgx.Identifier(parts).Sanitize()
}

// buildSelect renders an assembled query to parameterized SQL. Field names
// were validated against the registry at parse time, and are still quoted
// through pgx.Identifier before interpolation.
func buildSelect(q query.Query) (string, []any) {
	b := &builder{}
	b.sql.WriteString("SELECT * FROM ")
	b.sql.WriteString(ident(q.Model.Schema, q.Model.Table))
	writeWhere(b, q.Filter)
	writeOrder(b, q.Order)

	b.sql.WriteString(" LIMIT ")
	b.sql.WriteString(b.placeholder(q.Page.Limit))
	if q.Page.Offset > 0 {
		b.sql.WriteString(" OFFSET ")
		b.sql.WriteString(b.placeholder(q.Page.Offset))
	}
	return b.sql.String(), b.args
}

func buildCount(q query.Query) (string, []any) {
	b := &builder{}
	b.sql.WriteString("SELECT count(*) FROM ")
	b.sql.WriteString(ident(q.Model.Schema, q.Model.Table))
	writeWhere(b, q.Filter)
	return b.sql.String(), b.args
}

func writeWhere(b *builder, f *query.Filter) {
	if f == nil || len(f.Predicates) == 0 {
		return
	}
	clauses := make([]string, 0, len(f.Predicates))
	for _, p := range f.Predicates {
		clauses = append(clauses, predicateSQL(b, p))
	}
	b.sql.WriteString(" WHERE ")
	b.sql.WriteString(strings.Join(clauses, " AND "))
}

func predicateSQL(b *builder, p query.Predicate) string {
	col := ident(p.Field.Name)

	switch p.Op {
	case query.OpIsNull:
		if p.Negated {
			return col + " IS NOT NULL"
		}
		return col + " IS NULL"
	case query.OpIn:
		if len(p.Values) == 0 {
			// Empty membership matches nothing.
			if p.Negated {
				return "TRUE"
			}
			return "FALSE"
		}
		placeholders := make([]string, 0, len(p.Values))
		for _, v := range p.Values {
			placeholders = append(placeholders, b.placeholder(v))
		}
		clause := fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", "))
		return negate(clause, p.Negated)
	default:
		clause := fmt.Sprintf("%s %s %s", col, opSQL[p.Op], b.placeholder(p.Value))
		return negate(clause, p.Negated)
	}
}

func negate(clause string, negated bool) string {
	if negated {
		return fmt.Sprintf("NOT (%s)", clause)
	}
	return clause
}

func writeOrder(b *builder, order []query.OrderSpec) {
	if len(order) == 0 {
		return
	}
	terms := make([]string, 0, len(order))
	for _, o := range order {
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		terms = append(terms, ident(o.Field.Name)+" "+dir)
	}
	b.sql.WriteString(" ORDER BY ")
	b.sql.WriteString(strings.Join(terms, ", "))
}

// sortedKeys fixes the column order so rendered statements are stable.
func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func buildInsert(m *schema.Model, data map[string]any) (string, []any, error) {
	b := &builder{}
	columns := make([]string, 0, len(data))
	placeholders := make([]string, 0, len(data))
	for _, key := range sortedKeys(data) {
		if _, ok := m.Field(key); !ok {
			continue
		}
		columns = append(columns, ident(key))
		placeholders = append(placeholders, b.placeholder(data[key]))
	}
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("no valid columns to insert")
	}

	b.sql.WriteString("INSERT INTO ")
	b.sql.WriteString(ident(m.Schema, m.Table))
	b.sql.WriteString(" (")
	b.sql.WriteString(strings.Join(columns, ", "))
	b.sql.WriteString(") VALUES (")
	b.sql.WriteString(strings.Join(placeholders, ", "))
	b.sql.WriteString(") RETURNING *")
	return b.sql.String(), b.args, nil
}

func buildUpdate(m *schema.Model, id any, data map[string]any) (string, []any, error) {
	b := &builder{}
	setClauses := make([]string, 0, len(data))
	for _, key := range sortedKeys(data) {
		if _, ok := m.Field(key); !ok || key == m.IDField {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", ident(key), b.placeholder(data[key])))
	}
	if len(setClauses) == 0 {
		return "", nil, fmt.Errorf("no valid columns to update")
	}

	b.sql.WriteString("UPDATE ")
	b.sql.WriteString(ident(m.Schema, m.Table))
	b.sql.WriteString(" SET ")
	b.sql.WriteString(strings.Join(setClauses, ", "))
	b.sql.WriteString(" WHERE ")
	b.sql.WriteString(ident(m.IDField))
	b.sql.WriteString(" = ")
	b.sql.WriteString(b.placeholder(id))
	b.sql.WriteString(" RETURNING *")
	return b.sql.String(), b.args, nil
}
