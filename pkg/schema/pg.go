package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Conn is the subset of pgx connection behavior the loader needs. Both
// *pgx.Conn and *pgxpool.Pool satisfy it.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Load introspects a database schema and builds a Model per table, mapping
// column types to field kinds. Columns participating in a foreign key become
// KindForeignKey regardless of their storage type.
func Load(ctx context.Context, conn Conn, dbSchema string) (map[string]*Model, error) {
	tables, err := queryTables(ctx, conn, dbSchema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}

	models := make(map[string]*Model, len(tables))
	for _, table := range tables {
		cols, pk, err := queryColumns(ctx, conn, dbSchema, table)
		if err != nil {
			return nil, fmt.Errorf("query columns %s.%s: %w", dbSchema, table, err)
		}
		fkCols, err := queryForeignKeyColumns(ctx, conn, dbSchema, table)
		if err != nil {
			return nil, fmt.Errorf("query foreign keys %s.%s: %w", dbSchema, table, err)
		}

		fields := make([]FieldSpec, 0, len(cols))
		for _, c := range cols {
			kind := kindOf(c.dataType)
			if fkCols[c.name] {
				kind = KindForeignKey
			}
			fields = append(fields, FieldSpec{Name: c.name, Kind: kind, Nullable: c.nullable})
		}

		opts := []ModelOption{WithSchema(dbSchema), WithTable(table)}
		if pk != "" {
			opts = append(opts, WithIDField(pk))
		}
		m, err := NewModel(table, fields, opts...)
		if err != nil {
			return nil, err
		}
		models[table] = m
	}
	return models, nil
}

type column struct {
	name     string
	dataType string
	nullable bool
}

// kindOf maps a Postgres data type to a field kind. Unrecognized types are
// treated as text.
func kindOf(dataType string) FieldKind {
	switch strings.ToLower(dataType) {
	case "smallint", "integer", "bigint", "smallserial", "serial", "bigserial":
		return KindInteger
	case "boolean":
		return KindBoolean
	case "date", "timestamp without time zone", "timestamp with time zone":
		return KindDatetime
	default:
		return KindText
	}
}

func queryTables(ctx context.Context, conn Conn, dbSchema string) ([]string, error) {
	rows, err := conn.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, dbSchema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func queryColumns(ctx context.Context, conn Conn, dbSchema, table string) ([]column, string, error) {
	rows, err := conn.Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = $1
					AND tc.table_name = $2
					AND kcu.column_name = c.column_name
			) AS is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, dbSchema, table)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var cols []column
	var pk string
	for rows.Next() {
		var c column
		var isPK bool
		if err := rows.Scan(&c.name, &c.dataType, &c.nullable, &isPK); err != nil {
			return nil, "", err
		}
		cols = append(cols, c)
		if isPK && pk == "" {
			pk = c.name
		}
	}
	return cols, pk, rows.Err()
}

func queryForeignKeyColumns(ctx context.Context, conn Conn, dbSchema, table string) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2`, dbSchema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := make(map[string]bool)
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		fks[col] = true
	}
	return fks, rows.Err()
}
