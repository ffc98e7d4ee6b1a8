package roadmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradplan/internal/config"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := OpenCache(config.CacheConfig{InMemory: true, TTL: ttl}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheMissThenHit(t *testing.T) {
	c := openTestCache(t, time.Hour)

	got, err := c.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	resp := Response{ProgramCode: "major-cs", ProgramName: "BSc CS", IsValid: true}
	require.NoError(t, c.Put("key-1", resp))

	got, err = c.Get("key-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "major-cs", got.ProgramCode)
	assert.True(t, got.IsValid)
}

func TestCachePersistsToDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := config.CacheConfig{Dir: dir, TTL: time.Hour}

	c, err := OpenCache(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, c.Put("key", Response{ProgramCode: "honors-cs"}))
	require.NoError(t, c.Close())

	c, err = OpenCache(cfg, nil)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Get("key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "honors-cs", got.ProgramCode)
}

func TestCacheKeyStability(t *testing.T) {
	base := Request{
		ProgramCode:          "major-cs",
		StartingYear:         2026,
		StartingTerm:         "FALL",
		CompletedCourses:     []string{"CMPUT 175", "CMPUT 174"},
		CreditLoadPreference: "STANDARD",
		MaxYears:             4,
	}

	// Completed course order does not change the key.
	reordered := base
	reordered.CompletedCourses = []string{"CMPUT 174", "CMPUT 175"}
	assert.Equal(t, Key(base), Key(reordered))

	// Any parameter change does.
	heavier := base
	heavier.CreditLoadPreference = "HEAVY"
	assert.NotEqual(t, Key(base), Key(heavier))
}
