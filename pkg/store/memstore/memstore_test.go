package memstore_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crudr/crudr/internal/testutil"
	"github.com/crudr/crudr/pkg/query"
	"github.com/crudr/crudr/pkg/schema"
	"github.com/crudr/crudr/pkg/store"
	"github.com/crudr/crudr/pkg/store/memstore"
)

func seeded(t *testing.T) (*memstore.Store, *schema.Model) {
	t.Helper()
	s := memstore.New()
	m := testutil.TestModel()
	s.Seed(m, testutil.Rows())
	return s, m
}

func assemble(t *testing.T, m *schema.Model, rawQuery string) query.Query {
	t.Helper()
	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	f, err := query.Compile(m, values, nil)
	require.NoError(t, err)
	order, err := query.CompileOrder(m, values.Get("order_by"))
	require.NoError(t, err)
	return query.Assemble(m, f, order, nil, query.PageSpec{Limit: 100})
}

func TestCountByOperator(t *testing.T) {
	s, m := seeded(t)
	ctx := context.Background()

	for rawQuery, want := range map[string]int64{
		"":                                  3,
		"tf_text=Test field 1":              1,
		"tf_integer__gt=0":                  2,
		"tf_integer__gte=10":                2,
		"tf_integer__lt=10":                 1,
		"tf_integer__lte=-10":               1,
		"tf_integer__ne=10":                 2,
		"-tf_integer=10":                    2,
		"tf_integer__in=1,2,-10":            1,
		"tf_integer__in=":                   0,
		"-tf_integer__in=":                  3,
		"tf_text__isnull=1":                 0,
		"-tf_text__isnull=1":                3,
		"tf_text__like=test%25":             0,
		"tf_text__ilike=test%25":            3,
		"tf_text__like=Test%25":             3,
		"tf_text__like=Test_field":          0,
		"tf_boolean=true":                   2,
		"tf_boolean=f":                      1,
		"tf_datetime__gte=2016-5-5":         2,
		"tf_datetime__lt=2016-1-11":         1,
		"tf_boolean=true&tf_integer__gt=15": 1,
	} {
		t.Run(rawQuery, func(t *testing.T) {
			n, err := s.Count(ctx, assemble(t, m, rawQuery))
			require.NoError(t, err)
			assert.Equal(t, want, n)
		})
	}
}

func TestNullSemantics(t *testing.T) {
	s, m := seeded(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, m, map[string]any{"tf_text": "Test field 4", "tf_integer": nil, "tf_boolean": false})
	require.NoError(t, err)

	// A NULL value satisfies no comparison, negated or not; only isnull sees it.
	for rawQuery, want := range map[string]int64{
		"tf_integer__isnull=1":  1,
		"-tf_integer__isnull=1": 3,
		"tf_integer__gt=-100":   3,
		"-tf_integer__gt=-100":  0,
		"tf_integer__ne=10":     2,
	} {
		n, err := s.Count(ctx, assemble(t, m, rawQuery))
		require.NoError(t, err)
		assert.Equal(t, want, n, rawQuery)
	}
}

func TestSelectOrderAndPage(t *testing.T) {
	s, m := seeded(t)
	ctx := context.Background()

	rows, err := s.Select(ctx, assemble(t, m, "order_by=-tf_integer"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(20), rows[0]["tf_integer"])
	assert.Equal(t, int64(10), rows[1]["tf_integer"])
	assert.Equal(t, int64(-10), rows[2]["tf_integer"])

	// Secondary key breaks the tie left by the primary.
	rows, err = s.Select(ctx, assemble(t, m, "order_by=-tf_boolean,-tf_text"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Test field 2", rows[0]["tf_text"])
	assert.Equal(t, "Test field 1", rows[1]["tf_text"])
	assert.Equal(t, "Test field 3", rows[2]["tf_text"])

	q := assemble(t, m, "order_by=tf_integer")
	q.Page = query.PageSpec{Limit: 1, Offset: 1}
	rows, err = s.Select(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0]["tf_integer"])

	q.Page = query.PageSpec{Limit: 10, Offset: 5}
	rows, err = s.Select(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPrefetch(t *testing.T) {
	s, m := seeded(t)
	fk := testutil.TestModelFK()
	s.Seed(fk, []map[string]any{
		{"tf_foreign_key": 1},
		{"tf_foreign_key": 1},
		{"tf_foreign_key": 2},
	})

	q := assemble(t, m, "order_by=id")
	q.Prefetch = []query.Prefetch{{Relation: testutil.RelItems(), Model: fk}}

	rows, err := s.Select(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Len(t, rows[0]["rel_items"], 2)
	assert.Len(t, rows[1]["rel_items"], 1)
	// A parent without children still carries the key, with an empty list.
	assert.Equal(t, []map[string]any{}, rows[2]["rel_items"])
}

func TestItemLifecycle(t *testing.T) {
	s, m := seeded(t)
	ctx := context.Background()

	row, err := s.Get(ctx, m, int64(2))
	require.NoError(t, err)
	assert.Equal(t, "Test field 2", row["tf_text"])

	_, err = s.Get(ctx, m, int64(99))
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Partial update leaves other fields alone and never moves the id.
	row, err = s.Update(ctx, m, int64(2), map[string]any{"tf_integer": 42, "id": 77})
	require.NoError(t, err)
	assert.Equal(t, int64(42), row["tf_integer"])
	assert.Equal(t, int64(2), row["id"])
	assert.Equal(t, "Test field 2", row["tf_text"])

	_, err = s.Update(ctx, m, int64(99), map[string]any{"tf_integer": 1})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Delete(ctx, m, int64(2)))
	assert.ErrorIs(t, s.Delete(ctx, m, int64(2)), store.ErrNotFound)

	n, err := s.Count(ctx, assemble(t, m, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestInsertAssignsIDs(t *testing.T) {
	s := memstore.New()
	m := testutil.TestModel()

	first, err := s.Insert(context.Background(), m, map[string]any{"tf_text": "a"})
	require.NoError(t, err)
	second, err := s.Insert(context.Background(), m, map[string]any{"tf_text": "b"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first["id"])
	assert.Equal(t, int64(2), second["id"])
}
