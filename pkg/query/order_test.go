package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crudr/crudr/internal/testutil"
	"github.com/crudr/crudr/pkg/query"
)

func TestCompileOrder(t *testing.T) {
	m := testutil.TestModel()

	t.Run("empty input yields nil", func(t *testing.T) {
		specs, err := query.CompileOrder(m, "")
		require.NoError(t, err)
		assert.Nil(t, specs)
	})

	t.Run("minus prefix means descending", func(t *testing.T) {
		specs, err := query.CompileOrder(m, "-tf_integer,tf_text")
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "tf_integer", specs[0].Field.Name)
		assert.True(t, specs[0].Descending)
		assert.Equal(t, "tf_text", specs[1].Field.Name)
		assert.False(t, specs[1].Descending)
	})

	t.Run("trailing comma is tolerated", func(t *testing.T) {
		specs, err := query.CompileOrder(m, "tf_text,")
		require.NoError(t, err)
		assert.Len(t, specs, 1)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := query.CompileOrder(m, "bad_field")
		assert.ErrorIs(t, err, query.ErrBadQuery)
	})
}

func TestCompileDefaultOrder(t *testing.T) {
	m := testutil.TestModel()

	specs := query.CompileDefaultOrder(m, "-id")
	require.Len(t, specs, 1)
	assert.True(t, specs[0].Descending)

	assert.Panics(t, func() {
		query.CompileDefaultOrder(m, "bad_field")
	})
}
