package cache_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"scandex/internal/cache"
)

func TestLRUGetPut(t *testing.T) {
	c := cache.NewLRU(1024)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("a", []byte("payload"))
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.True(t, bytes.Equal([]byte("payload"), got))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(7), c.SizeBytes())
}

func TestLRUEvictsOldestWhenOverBudget(t *testing.T) {
	c := cache.NewLRU(30)

	c.Put("a", make([]byte, 10))
	c.Put("b", make([]byte, 10))
	c.Put("c", make([]byte, 10))
	assert.Equal(t, 3, c.Len())

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Put("d", make([]byte, 10))

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
	assert.LessOrEqual(t, c.SizeBytes(), int64(30))
}

func TestLRUReplaceAdjustsSize(t *testing.T) {
	c := cache.NewLRU(100)

	c.Put("a", make([]byte, 40))
	c.Put("a", make([]byte, 10))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(10), c.SizeBytes())
}

func TestLRURejectsOversizedPayload(t *testing.T) {
	c := cache.NewLRU(16)

	c.Put("huge", make([]byte, 64))
	assert.Equal(t, 0, c.Len())
}

func TestLRURemoveAndClear(t *testing.T) {
	c := cache.NewLRU(1024)
	c.Put("a", []byte("x"))
	c.Put("b", []byte("y"))

	c.Remove("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.SizeBytes())
}

func TestLRUStats(t *testing.T) {
	c := cache.NewLRU(1024)
	c.Put("a", []byte("x"))

	c.Get("a")
	c.Get("a")
	c.Get("nope")

	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
}
