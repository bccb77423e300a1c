package cache

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sportsposter/internal/loader"
	"github.com/verte-zerg/sportsposter/internal/model"
)

const export = "Activity ID,Activity Date,Activity Name,Activity Type,Distance,Moving Time,Distance\n" +
	"1,\"Mar 3, 2024, 7:15:00 AM\",Morning Run,Run,5.0,1800,5000.0\n"

func TestAssetsLoadsOnce(t *testing.T) {
	assets := NewAssets[string, int]()
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 3; i++ {
		v, err := assets.GetOrLoad("answer", load)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, assets.Len())
}

func TestAssetsDoesNotCacheErrors(t *testing.T) {
	assets := NewAssets[string, int]()
	_, err := assets.GetOrLoad("k", func() (int, error) { return 0, errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, assets.Len())

	v, err := assets.GetOrLoad("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestParseCacheHit(t *testing.T) {
	c := NewParseCache(4, time.Minute)
	first, err := c.Parse([]byte(export))
	require.NoError(t, err)
	second, err := c.Parse([]byte(export))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get(loader.Digest([]byte(export)))
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestParseCacheSkipsErrors(t *testing.T) {
	c := NewParseCache(4, time.Minute)
	_, err := c.Parse([]byte("a,b\n1,2\n"))
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestParseCacheExpires(t *testing.T) {
	c := NewParseCache(4, 20*time.Millisecond)
	_, err := c.Parse([]byte(export))
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, ok := c.Get(loader.Digest([]byte(export)))
	assert.False(t, ok)
}

func TestParseCacheEvictsOldest(t *testing.T) {
	c := NewParseCache(1, time.Minute)
	_, err := c.Parse([]byte(export))
	require.NoError(t, err)
	other := export + "2,\"Mar 4, 2024, 7:15:00 AM\",Evening Ride,Ride,20.0,3600,20000.0\n"
	_, err = c.Parse([]byte(other))
	require.NoError(t, err)

	_, ok := c.Get(loader.Digest([]byte(export)))
	assert.False(t, ok)
	_, ok = c.Get(loader.Digest([]byte(other)))
	assert.True(t, ok)
}

func TestArtifactsRoundTripLargeValue(t *testing.T) {
	a := NewArtifacts(megabyte, time.Minute)
	scope := model.Scope{Variant: model.VariantYear, Year: 2024, Unit: model.UnitKilometers}
	key := ArtifactKey("digest", scope, "png")
	data := bytes.Repeat([]byte("poster"), 5000)

	assert.Equal(t, int64(0), a.Entries())
	require.NoError(t, a.Set(key, data))
	chunks := (len(data) + a.chunkSize - 1) / a.chunkSize
	assert.Equal(t, int64(chunks+1), a.Entries())
	got, ok := a.Get(key)
	require.True(t, ok)
	assert.Equal(t, data, got)

	_, ok = a.Get(ArtifactKey("digest", scope, "svg"))
	assert.False(t, ok)
}

func TestArtifactsEmptyValue(t *testing.T) {
	a := NewArtifacts(megabyte, time.Minute)
	require.NoError(t, a.Set("empty", nil))
	assert.Equal(t, int64(1), a.Entries())
	got, ok := a.Get("empty")
	require.True(t, ok)
	assert.Empty(t, got)
}
