package query_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crudr/crudr/internal/testutil"
	"github.com/crudr/crudr/pkg/query"
)

func TestCompile(t *testing.T) {
	m := testutil.TestModel()

	t.Run("reserved keys are not filters", func(t *testing.T) {
		values := url.Values{
			"limit":    {"5"},
			"offset":   {"1"},
			"order_by": {"tf_text"},
			"total":    {""},
		}
		f, err := query.Compile(m, values, nil)
		require.NoError(t, err)
		assert.Empty(t, f.Predicates)
	})

	t.Run("keys compile in sorted order", func(t *testing.T) {
		values := url.Values{
			"tf_integer__gt": {"0"},
			"tf_boolean":     {"true"},
		}
		f, err := query.Compile(m, values, nil)
		require.NoError(t, err)
		require.Len(t, f.Predicates, 2)
		assert.Equal(t, "tf_boolean", f.Predicates[0].Field.Name)
		assert.Equal(t, "tf_integer", f.Predicates[1].Field.Name)
	})

	t.Run("repeated key yields one predicate per value", func(t *testing.T) {
		values := url.Values{"tf_integer__gt": {"0", "5"}}
		f, err := query.Compile(m, values, nil)
		require.NoError(t, err)
		assert.Len(t, f.Predicates, 2)
	})

	t.Run("defaults always apply", func(t *testing.T) {
		defaults, err := query.CompileDefaults(m, map[string]string{"tf_boolean": "true"})
		require.NoError(t, err)

		f, err := query.Compile(m, url.Values{"tf_boolean": {"false"}}, defaults)
		require.NoError(t, err)
		// Both the default and the request predicate survive; they AND together.
		require.Len(t, f.Predicates, 2)
		assert.Equal(t, true, f.Predicates[0].Value)
		assert.Equal(t, false, f.Predicates[1].Value)
	})

	t.Run("first bad token aborts", func(t *testing.T) {
		values := url.Values{
			"tf_integer": {"ABC"},
			"tf_text":    {"fine"},
		}
		_, err := query.Compile(m, values, nil)
		assert.ErrorIs(t, err, query.ErrBadQuery)
	})
}

func TestMustCompileDefaults(t *testing.T) {
	m := testutil.TestModel()

	f := query.MustCompileDefaults(m, map[string]string{"tf_integer__gte": "0"})
	require.Len(t, f.Predicates, 1)

	assert.Panics(t, func() {
		query.MustCompileDefaults(m, map[string]string{"nope": "1"})
	})
}
