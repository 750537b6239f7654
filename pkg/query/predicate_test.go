package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crudr/crudr/internal/testutil"
	"github.com/crudr/crudr/pkg/query"
)

func TestParsePredicate(t *testing.T) {
	m := testutil.TestModel()

	t.Run("bare key defaults to eq", func(t *testing.T) {
		p, err := query.ParsePredicate(m, "tf_text", "Test field 1")
		require.NoError(t, err)
		assert.Equal(t, query.OpEq, p.Op)
		assert.Equal(t, "tf_text", p.Field.Name)
		assert.Equal(t, "Test field 1", p.Value)
		assert.False(t, p.Negated)
	})

	t.Run("integer operand is coerced", func(t *testing.T) {
		p, err := query.ParsePredicate(m, "tf_integer__gt", "5")
		require.NoError(t, err)
		assert.Equal(t, query.OpGt, p.Op)
		assert.Equal(t, int64(5), p.Value)
	})

	t.Run("leading minus negates", func(t *testing.T) {
		p, err := query.ParsePredicate(m, "-tf_integer__lte", "-10")
		require.NoError(t, err)
		assert.True(t, p.Negated)
		assert.Equal(t, int64(-10), p.Value)
	})

	t.Run("isnull ignores the operand", func(t *testing.T) {
		p, err := query.ParsePredicate(m, "tf_text__isnull", "whatever")
		require.NoError(t, err)
		assert.Equal(t, query.OpIsNull, p.Op)
		assert.Nil(t, p.Value)
	})

	t.Run("in splits and coerces each element", func(t *testing.T) {
		p, err := query.ParsePredicate(m, "tf_integer__in", "1,2,-10")
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), int64(2), int64(-10)}, p.Values)
	})

	t.Run("empty in operand yields empty set", func(t *testing.T) {
		p, err := query.ParsePredicate(m, "tf_integer__in", "")
		require.NoError(t, err)
		assert.Empty(t, p.Values)
	})

	t.Run("datetime accepts date only", func(t *testing.T) {
		p, err := query.ParsePredicate(m, "tf_datetime__lt", "2016-9-15")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2016, 9, 15, 0, 0, 0, 0, time.UTC), p.Value)
	})

	t.Run("datetime accepts date with time", func(t *testing.T) {
		p, err := query.ParsePredicate(m, "tf_datetime__lte", "2016-9-15 23:59:59")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2016, 9, 15, 23, 59, 59, 0, time.UTC), p.Value)
	})

	t.Run("boolean literals", func(t *testing.T) {
		for raw, want := range map[string]bool{"1": true, "t": true, "true": true, "0": false, "f": false, "false": false} {
			p, err := query.ParsePredicate(m, "tf_boolean", raw)
			require.NoError(t, err, raw)
			assert.Equal(t, want, p.Value, raw)
		}
	})

	t.Run("malformed tokens", func(t *testing.T) {
		for name, token := range map[string][2]string{
			"unknown field":          {"tf_missing", "1"},
			"unknown operator":       {"tf_text__regex", "x"},
			"non-integer operand":    {"tf_integer", "ABC"},
			"like on integer field":  {"tf_integer__like", "1%"},
			"ilike on boolean field": {"tf_boolean__ilike", "t%"},
			"bad boolean literal":    {"tf_boolean", "yes"},
			"bad datetime":           {"tf_datetime__gt", "not-a-date"},
			"bad element in list":    {"tf_integer__in", "1,x,3"},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := query.ParsePredicate(m, token[0], token[1])
				assert.ErrorIs(t, err, query.ErrBadQuery)
			})
		}
	})
}

func TestCoerceValue(t *testing.T) {
	m := testutil.TestModel()

	idField, ok := m.Field("id")
	require.True(t, ok)

	v, err := query.CoerceValue(idField.Kind, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = query.CoerceValue(idField.Kind, "ABC")
	assert.ErrorIs(t, err, query.ErrBadQuery)
}
