package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetExpiry(t *testing.T) {
	c := NewWithCleanup[string](0)
	defer c.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "요약", time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "요약", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.cleanup()
	assert.Zero(t, c.Len())
}

func TestGenerateKeyIsStable(t *testing.T) {
	a := GenerateKey("코스피 상승", "본문")
	assert.Equal(t, a, GenerateKey("코스피 상승", "본문"))
	assert.NotEqual(t, a, GenerateKey("코스피 하락", "본문"))
	assert.Len(t, a, 64)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New[int]()
	c.Close()
	c.Close()
	c.Set("n", 1, time.Hour)
	v, ok := c.Get("n")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
