package formulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters(t *testing.T) {
	p := Parameters{
		"f":     1.5,
		"i":     3,
		"i64":   int64(7),
		"whole": 4.0,
		"list":  []interface{}{1, 2.5, int64(3)},
		"bad":   []interface{}{1, "two"},
		"sub":   map[string]interface{}{"k": 2.0},
		"str":   "text",
	}
	{ // Numbers decode from any numeric type, defaults fill missing keys
		f, err := p.Float("f", 0)
		require.NoError(t, err)
		assert.Equal(t, 1.5, f)
		f, err = p.Float("i64", 0)
		require.NoError(t, err)
		assert.Equal(t, 7., f)
		f, err = p.Float("missing", 9)
		require.NoError(t, err)
		assert.Equal(t, 9., f)
		_, err = p.Float("str", 0)
		assert.Error(t, err)
		_, err = Parameters{"nan": math.NaN()}.Float("nan", 0)
		assert.Error(t, err)
		_, _, err = Parameters{"inf": []interface{}{1., math.Inf(1)}}.Floats("inf")
		assert.Error(t, err)
	}
	{ // Integers accept integral floats only
		i, err := p.Int("whole", 0)
		require.NoError(t, err)
		assert.Equal(t, 4, i)
		i, err = p.Int("i", 0)
		require.NoError(t, err)
		assert.Equal(t, 3, i)
		_, err = p.Int("f", 0)
		assert.Error(t, err)
	}
	{ // Arrays
		vals, ok, err := p.Floats("list")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []float64{1, 2.5, 3}, vals)
		_, ok, err = p.Floats("missing")
		assert.NoError(t, err)
		assert.False(t, ok)
		_, _, err = p.Floats("bad")
		assert.Error(t, err)
		_, _, err = p.List("f")
		assert.Error(t, err)
	}
	{ // Nested maps
		sub, err := p.Sub("sub")
		require.NoError(t, err)
		k, err := sub.Float("k", 0)
		require.NoError(t, err)
		assert.Equal(t, 2., k)
		sub, err = p.Sub("missing")
		require.NoError(t, err)
		assert.Empty(t, sub)
		_, err = p.Sub("f")
		assert.Error(t, err)
	}
	assert.Equal(t, []string{"bad", "f", "i", "i64", "list", "str", "sub", "whole"}, p.Keys())
}
