package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndEvalRow(t *testing.T) {
	env, err := NewEnvironment()
	require.NoError(t, err)

	program, err := env.Compile(`row.count > 5 && row.sample == filters.sample`)
	require.NoError(t, err)

	ok, err := program.EvalRow(
		map[string]any{"sample": "S1", "count": 12},
		map[string]any{"sample": "S1"},
	)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = program.EvalRow(
		map[string]any{"sample": "S2", "count": 12},
		map[string]any{"sample": "S1"},
	)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileRejectsEmptyExpression(t *testing.T) {
	env, err := NewEnvironment()
	require.NoError(t, err)

	_, err = env.Compile("   ")
	require.Error(t, err)
}

func TestCompileRejectsNonBool(t *testing.T) {
	env, err := NewEnvironment()
	require.NoError(t, err)

	_, err = env.Compile(`row.sample`)
	require.Error(t, err)
}

func TestEvalRowWithNilFilters(t *testing.T) {
	env, err := NewEnvironment()
	require.NoError(t, err)

	program, err := env.Compile(`!("sample" in filters) || row.sample == filters.sample`)
	require.NoError(t, err)

	ok, err := program.EvalRow(map[string]any{"sample": "S1"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
