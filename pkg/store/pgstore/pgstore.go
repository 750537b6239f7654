// Package pgstore executes assembled queries against PostgreSQL through
// pgx. Predicates render to parameterized SQL; identifiers pass through
// pgx.Identifier sanitizing.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/crudr/crudr/pkg/query"
	"github.com/crudr/crudr/pkg/schema"
	"github.com/crudr/crudr/pkg/store"
)

// Conn abstracts the pgx connection type so both *pgx.Conn and
// *pgxpool.Pool work.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	conn Conn
}

func New(conn Conn) *Store {
	return &Store{conn: conn}
}

func (s *Store) Select(ctx context.Context, q query.Query) ([]map[string]any, error) {
	sql, args := buildSelect(q)
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Model.FullTableName(), err)
	}
	result, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}

	for _, pf := range q.Prefetch {
		if err := s.prefetch(ctx, q.Model, result, pf); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) Count(ctx context.Context, q query.Query) (int64, error) {
	sql, args := buildCount(q)
	var total int64
	if err := s.conn.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Model.FullTableName(), err)
	}
	return total, nil
}

func (s *Store) Get(ctx context.Context, m *schema.Model, id any) (map[string]any, error) {
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1",
		ident(m.Schema, m.Table), ident(m.IDField))
	rows, err := s.conn.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", m.FullTableName(), err)
	}
	result, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, store.ErrNotFound
	}
	return result[0], nil
}

func (s *Store) Insert(ctx context.Context, m *schema.Model, data map[string]any) (map[string]any, error) {
	sql, args, err := buildInsert(m, data)
	if err != nil {
		return nil, err
	}
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", m.FullTableName(), err)
	}
	result, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("insert %s: no row returned", m.FullTableName())
	}
	return result[0], nil
}

func (s *Store) Update(ctx context.Context, m *schema.Model, id any, data map[string]any) (map[string]any, error) {
	sql, args, err := buildUpdate(m, id, data)
	if err != nil {
		return nil, err
	}
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", m.FullTableName(), err)
	}
	result, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, store.ErrNotFound
	}
	return result[0], nil
}

func (s *Store) Delete(ctx context.Context, m *schema.Model, id any) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		ident(m.Schema, m.Table), ident(m.IDField))
	tag, err := s.conn.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", m.FullTableName(), err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// prefetch fetches all child rows referencing the selected parents with one
// bulk query, then groups them under the relation name on each parent row.
func (s *Store) prefetch(ctx context.Context, parent *schema.Model, rows []map[string]any, pf query.Prefetch) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]any, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r[parent.IDField])
	}

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s = ANY($1)",
		ident(pf.Model.Schema, pf.Model.Table), ident(pf.Relation.FKField))
	childRows, err := s.conn.Query(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("prefetch %s: %w", pf.Relation.Name, err)
	}
	children, err := rowsToMaps(childRows)
	if err != nil {
		return err
	}

	byFK := make(map[any][]map[string]any, len(rows))
	for _, child := range children {
		fk := child[pf.Relation.FKField]
		byFK[fk] = append(byFK[fk], child)
	}
	for _, r := range rows {
		grouped := byFK[r[parent.IDField]]
		if grouped == nil {
			grouped = []map[string]any{}
		}
		r[pf.Relation.Name] = grouped
	}
	return nil
}

func rowsToMaps(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	columnNames := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columnNames[i] = string(fd.Name)
	}

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePointers := make([]any, len(columnNames))
		for i := range values {
			valuePointers[i] = &values[i]
		}
		if err := rows.Scan(valuePointers...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, name := range columnNames {
			rowMap[name] = values[i]
		}
		result = append(result, rowMap)
	}
	return result, rows.Err()
}
