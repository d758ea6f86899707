package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheReturnsSameResult(t *testing.T) {
	cache := NewCache(DefaultParams(), time.Minute)
	bars := generateTestBars(60, wavyBar)

	first, err := cache.Generate("AAPL", bars)
	require.NoError(t, err)
	second, err := cache.Generate("AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())

	direct, err := Generate("AAPL", bars)
	require.NoError(t, err)
	assert.Equal(t, direct, first)
}

func TestCacheKeysOnSeriesFingerprint(t *testing.T) {
	cache := NewCache(DefaultParams(), time.Minute)
	bars := generateTestBars(61, wavyBar)

	_, err := cache.Generate("AAPL", bars[:60])
	require.NoError(t, err)
	_, err = cache.Generate("AAPL", bars)
	require.NoError(t, err)
	_, err = cache.Generate("MSFT", bars)
	require.NoError(t, err)

	assert.Equal(t, 3, cache.Len())
}

func TestCacheExpires(t *testing.T) {
	now := baseTime
	cache := NewCache(DefaultParams(), time.Minute)
	cache.now = func() time.Time { return now }

	bars := generateTestBars(60, wavyBar)
	_, err := cache.Generate("AAPL", bars)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = cache.Generate("MSFT", bars)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Len(), "expired AAPL entry is purged on insert")
}

func TestCachePropagatesInsufficientData(t *testing.T) {
	cache := NewCache(DefaultParams(), 0)
	_, err := cache.Latest("AAPL", generateTestBars(10, wavyBar))
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}
