// Package memstore is an in-memory store.Store. It evaluates assembled
// queries directly over Go values, mirroring the SQL semantics the pgstore
// renders. It backs the engine and handler tests and is usable as a backend
// for examples and prototypes.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/crudr/crudr/pkg/query"
	"github.com/crudr/crudr/pkg/schema"
	"github.com/crudr/crudr/pkg/store"
)

// Store holds one table of rows per model. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]map[string]any
	nextID map[string]int64
}

func New() *Store {
	return &Store{
		tables: make(map[string][]map[string]any),
		nextID: make(map[string]int64),
	}
}

// Seed inserts fixture rows, normalizing values to the model's field kinds.
func (s *Store) Seed(m *schema.Model, rows []map[string]any) {
	for _, r := range rows {
		if _, err := s.Insert(context.Background(), m, r); err != nil {
			panic(err)
		}
	}
}

func (s *Store) Select(_ context.Context, q query.Query) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matching(q)
	sortRows(matched, q.Order)
	matched = page(matched, q.Page)

	out := make([]map[string]any, 0, len(matched))
	for _, r := range matched {
		out = append(out, cloneRow(r))
	}
	for _, pf := range q.Prefetch {
		s.attachPrefetch(q.Model, out, pf)
	}
	return out, nil
}

func (s *Store) Count(_ context.Context, q query.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matching(q))), nil
}

func (s *Store) Get(_ context.Context, m *schema.Model, id any) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(m, id); i >= 0 {
		return cloneRow(s.tables[m.Name][i]), nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) Insert(_ context.Context, m *schema.Model, data map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := normalizeRow(m, data)
	if _, ok := row[m.IDField]; !ok {
		s.nextID[m.Name]++
		row[m.IDField] = s.nextID[m.Name]
	}
	s.tables[m.Name] = append(s.tables[m.Name], row)
	return cloneRow(row), nil
}

func (s *Store) Update(_ context.Context, m *schema.Model, id any, data map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(m, id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	row := s.tables[m.Name][i]
	for k, v := range normalizeRow(m, data) {
		if k == m.IDField {
			continue
		}
		row[k] = v
	}
	return cloneRow(row), nil
}

func (s *Store) Delete(_ context.Context, m *schema.Model, id any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(m, id)
	if i < 0 {
		return store.ErrNotFound
	}
	rows := s.tables[m.Name]
	s.tables[m.Name] = append(rows[:i], rows[i+1:]...)
	return nil
}

func (s *Store) matching(q query.Query) []map[string]any {
	var matched []map[string]any
	for _, r := range s.tables[q.Model.Name] {
		if matchesAll(r, q.Filter) {
			matched = append(matched, r)
		}
	}
	return matched
}

func (s *Store) indexOf(m *schema.Model, id any) int {
	for i, r := range s.tables[m.Name] {
		if equal(r[m.IDField], id) {
			return i
		}
	}
	return -1
}

func (s *Store) attachPrefetch(parent *schema.Model, rows []map[string]any, pf query.Prefetch) {
	byFK := make(map[any][]map[string]any)
	for _, child := range s.tables[pf.Model.Name] {
		fk := child[pf.Relation.FKField]
		byFK[fk] = append(byFK[fk], cloneRow(child))
	}
	for _, r := range rows {
		children := byFK[r[parent.IDField]]
		if children == nil {
			children = []map[string]any{}
		}
		r[pf.Relation.Name] = children
	}
}

func page(rows []map[string]any, p query.PageSpec) []map[string]any {
	if p.Offset >= len(rows) {
		return nil
	}
	rows = rows[p.Offset:]
	if p.Limit >= 0 && p.Limit < len(rows) {
		rows = rows[:p.Limit]
	}
	return rows
}

func sortRows(rows []map[string]any, order []query.OrderSpec) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range order {
			c := compare(rows[i][o.Field.Name], rows[j][o.Field.Name])
			if c == 0 {
				continue
			}
			if o.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func cloneRow(r map[string]any) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// normalizeRow coerces decoded JSON values to the kind-typed values the
// predicate evaluator compares against: int64, time.Time, bool, string.
func normalizeRow(m *schema.Model, data map[string]any) map[string]any {
	row := make(map[string]any, len(data))
	for k, v := range data {
		field, ok := m.Field(k)
		if !ok || v == nil {
			row[k] = v
			continue
		}
		row[k] = normalizeValue(field.Kind, v)
	}
	return row
}

func normalizeValue(kind schema.FieldKind, v any) any {
	switch kind {
	case schema.KindInteger, schema.KindForeignKey:
		switch n := v.(type) {
		case float64:
			return int64(n)
		case int:
			return int64(n)
		case int64:
			return n
		}
	case schema.KindDatetime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC()
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
				if parsed, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
					return parsed
				}
			}
		}
	}
	return v
}
