package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyedByKindAndID(t *testing.T) {
	c := NewCache()
	c.Put("session", "1:2", "a")
	c.Put("person", "1:2", "b")

	v, ok := c.Get("session", "1:2")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = c.Get("person", "1:2")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	assert.Equal(t, 2, c.Len())
}

func TestCachePutOverwrites(t *testing.T) {
	c := NewCache()
	c.Put("session", "1:2", "old")
	c.Put("session", "1:2", "new")

	v, _ := c.Get("session", "1:2")
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	c.Put("session", "1:2", "a")
	c.Invalidate("session", "1:2")

	_, ok := c.Get("session", "1:2")
	assert.False(t, ok)
}
