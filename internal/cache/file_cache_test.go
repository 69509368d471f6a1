package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func testCache(t *testing.T) *FileCache[payload] {
	t.Helper()
	t.Setenv("ROOT_PATH", t.TempDir())
	return NewFileCache[payload]("test")
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	fc := &FileCache[payload]{}
	a := fc.GenerateKey(int64(100), 20.0, []string{"T20TNT"})
	b := fc.GenerateKey(int64(100), 20.0, []string{"T20TNT"})
	c := fc.GenerateKey(int64(100), 20.0, []string{"T20TPT"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 40)
}

func TestSetGet(t *testing.T) {
	fc := testCache(t)

	_, ok := fc.Get("missing")
	assert.False(t, ok)

	want := payload{Name: "scenes", Count: 3}
	require.NoError(t, fc.Set("key", want))

	got, ok := fc.Get("key")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestGetExpired(t *testing.T) {
	fc := testCache(t)
	fc.maxAge = time.Nanosecond

	require.NoError(t, fc.Set("key", payload{Name: "old"}))
	time.Sleep(time.Millisecond)

	_, ok := fc.Get("key")
	assert.False(t, ok)
}
