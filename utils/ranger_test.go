package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDRange(t *testing.T) {
	{
		ids, err := ParseIDRange("3:6")
		require.NoError(t, err)
		assert.Equal(t, []int{3, 4, 5, 6}, ids)
	}
	{
		ids, err := ParseIDRange("5:5")
		require.NoError(t, err)
		assert.Equal(t, []int{5}, ids)
	}
	{
		ids, err := ParseIDRange(" 2 ")
		require.NoError(t, err)
		assert.Equal(t, []int{2}, ids)
	}
	{
		ids, err := ParseIDRange(7)
		require.NoError(t, err)
		assert.Equal(t, []int{7}, ids)
		ids, err = ParseIDRange(8.)
		require.NoError(t, err)
		assert.Equal(t, []int{8}, ids)
	}
	{ // Malformed specifications
		for _, bad := range []interface{}{"6:3", "a:b", "1:2:3", 2.5, []int{1}} {
			_, err := ParseIDRange(bad)
			assert.Error(t, err, "%v", bad)
		}
	}
}
