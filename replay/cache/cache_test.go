package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	c, err := NewMemoryCache(nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, c.Close())
	})

	key := []byte("mainnet/block/100")
	value := []byte{0x01, 0x02, 0x03}

	data, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)

	require.NoError(t, c.Set(key, value))

	data, ok, err = c.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, value, data)
}

func TestCache_Overwrite(t *testing.T) {
	t.Parallel()

	c, err := NewMemoryCache(nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, c.Close())
	})

	key := []byte("key")

	require.NoError(t, c.Set(key, []byte("old")))
	require.NoError(t, c.Set(key, []byte("new")))

	data, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), data)
}
