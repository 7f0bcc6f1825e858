package expr

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Parallel()
	c := NewCache(2)

	a1, err := c.Parse("a eq 1")
	require.NoError(t, err)
	a2, err := c.Parse("a eq 1")
	require.NoError(t, err)
	assert.True(t, a1 == a2, "should return the cached expression")
	assert.Equal(t, 1, c.Len())

	_, err = c.Parse("a eq")
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len(), "errors are not cached")

	_, err = c.Parse("b eq 2")
	require.NoError(t, err)
	_, err = c.Parse("c eq 3")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	// least recently used was evicted
	a3, err := c.Parse("a eq 1")
	require.NoError(t, err)
	assert.False(t, a1 == a3)
	assert.True(t, a1.Equal(a3))

	assert.Equal(t, HashKey("a eq 1"), HashKey("a eq 1"))
	assert.NotEqual(t, HashKey("a eq 1"), HashKey("a eq 2"))
}

func TestCacheConcurrent(t *testing.T) {
	t.Parallel()
	c := NewCache(8)
	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("a eq %d", i%10)
			ex, err := c.Parse(text)
			assert.NoError(t, err)
			assert.Equal(t, text, ex.String())
		}(i)
	}
	wg.Wait()
	assert.True(t, c.Len() <= 8)
}
