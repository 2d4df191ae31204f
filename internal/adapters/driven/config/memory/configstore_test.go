package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"search.max_results": 25}
	store := NewConfigStore(seed)
	seed["search.max_results"] = 99

	assert.Equal(t, 25, store.GetInt("search.max_results"))
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Load())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(nil)
	require.NoError(t, store.Set("archives.directory", "/srv/zim"))
	require.NoError(t, store.Set("cache.archives", int64(4)))
	require.NoError(t, store.Set("search.parallel", true))
	require.NoError(t, store.Set("content.max_length", 1.5e3))

	assert.Equal(t, "/srv/zim", store.GetString("archives.directory"))
	assert.Equal(t, 4, store.GetInt("cache.archives"))
	assert.Equal(t, 1500, store.GetInt("content.max_length"))
	assert.True(t, store.GetBool("search.parallel"))

	// Wrong types and missing keys read as zero values.
	assert.Equal(t, "", store.GetString("cache.archives"))
	assert.Equal(t, 0, store.GetInt("archives.directory"))
	assert.False(t, store.GetBool("missing"))
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("key", i)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("key")
		}()
	}
	wg.Wait()

	_, ok := store.Get("key")
	assert.True(t, ok)
}
