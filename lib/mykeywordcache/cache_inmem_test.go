package mykeywordcache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordCache(t *testing.T) {
	c := context.TODO()
	cache, cleanup, err := NewInMemoryKeywordCache(c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Empty cache", func(t *testing.T) {
		frequencies, err := cache.GetKeywordFrequencies(c)
		assert.NoError(t, err)
		assert.Empty(t, frequencies)
	})

	t.Run("Record keywords", func(t *testing.T) {
		assert.NoError(t, cache.RecordSearchedKeyword(c, "shoe"))
		assert.NoError(t, cache.RecordSearchedKeyword(c, "shoe"))
		assert.NoError(t, cache.RecordSearchedKeyword(c, "racket"))

		frequencies, err := cache.GetKeywordFrequencies(c)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), frequencies["shoe"])
		assert.Equal(t, int64(1), frequencies["racket"])
	})
}

func TestKeywordCacheConcurrentRecording(t *testing.T) {
	c := context.TODO()
	cache, cleanup, err := NewInMemoryKeywordCache(c)
	assert.NoError(t, err)
	defer cleanup()

	const numRoutines = 50
	wg := sync.WaitGroup{}
	wg.Add(numRoutines)
	for i := 0; i < numRoutines; i++ {
		go func() {
			defer wg.Done()
			cache.RecordSearchedKeyword(c, "shoe")
		}()
	}
	wg.Wait()

	frequencies, err := cache.GetKeywordFrequencies(c)
	assert.NoError(t, err)
	assert.Equal(t, int64(numRoutines), frequencies["shoe"])
}
