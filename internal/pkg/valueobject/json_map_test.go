package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap_Value(t *testing.T) {
	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = JSONMap{"city": "Pune"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Pune"}`, string(v.([]byte)))
}

func TestJSONMap_Scan(t *testing.T) {
	var j JSONMap

	require.NoError(t, j.Scan([]byte(`{"years":3}`)))
	assert.Equal(t, JSONMap{"years": float64(3)}, j)

	require.NoError(t, j.Scan(`{"a":"b"}`))
	assert.Equal(t, JSONMap{"a": "b"}, j)

	require.NoError(t, j.Scan(map[string]any{"k": true}))
	assert.Equal(t, JSONMap{"k": true}, j)

	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)
	assert.True(t, j.IsEmpty())

	assert.ErrorIs(t, j.Scan(42), ErrScanValueNotBytes)
	assert.Error(t, j.Scan([]byte(`not json`)))
}
