package predictor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/matchpredict/pkg/store"
)

type memoryCache struct {
	sets     map[string]*FeatureSet
	loads    int
	stores   int
	failLoad bool
}

func (m *memoryCache) Load(_ context.Context, key string) (*FeatureSet, bool, error) {
	m.loads++
	if m.failLoad {
		return nil, false, errors.New("cache down")
	}
	fs, ok := m.sets[key]
	return fs, ok, nil
}

func (m *memoryCache) Store(_ context.Context, key string, fs *FeatureSet) error {
	m.stores++
	m.sets[key] = fs
	return nil
}

func testCorpus() *Corpus {
	return &Corpus{Checksum: "abc123", Matches: twoMatchCorpus()}
}

func TestBuildFeaturesUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &memoryCache{sets: map[string]*FeatureSet{}}

	first, err := BuildFeatures(ctx, testCorpus(), cache, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.stores)

	second, err := BuildFeatures(ctx, testCorpus(), cache, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.stores)
	assert.Same(t, first, second)

	// a different threshold is a different artifact
	_, err = BuildFeatures(ctx, testCorpus(), cache, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.stores)
}

func TestBuildFeaturesFallsBackWhenCacheFails(t *testing.T) {
	cache := &memoryCache{sets: map[string]*FeatureSet{}, failLoad: true}
	fs, err := BuildFeatures(context.Background(), testCorpus(), cache, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, fs.Len())
}

func TestBuildFeaturesWithoutCache(t *testing.T) {
	fs, err := BuildFeatures(context.Background(), testCorpus(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arsenal", "Chelsea"}, fs.Teams())
}

func TestSQLiteFeatureCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	defer db.Close()

	cache, err := NewSQLiteFeatureCache(ctx, db)
	require.NoError(t, err)

	_, ok, err := cache.Load(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := Aggregate(twoMatchCorpus())
	require.NoError(t, cache.Store(ctx, "k1", want))

	got, ok, err := cache.Load(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Vectors(), got.Vectors())

	// storing a newer corpus evicts the old rows
	require.NoError(t, cache.Store(ctx, "k2", want))
	_, ok, err = cache.Load(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteFeatureCacheFailedStoreKeepsRows(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	defer db.Close()
	cache, err := NewSQLiteFeatureCache(ctx, db)
	require.NoError(t, err)

	want := Aggregate(twoMatchCorpus())
	require.NoError(t, cache.Store(ctx, "k1", want))

	// a vector with no team fails the row's save hook
	bad := NewFeatureSet(append(want.Vectors(), &TeamFeatureVector{Matches: 1}))
	require.Error(t, cache.Store(ctx, "k2", bad))

	got, ok, err := cache.Load(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Vectors(), got.Vectors())
	_, ok, err = cache.Load(ctx, "k2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisFeatureCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	cache := NewRedisFeatureCache(client, time.Minute)

	_, ok, err := cache.Load(ctx, "abc:1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, client.Get(ctx, "features:abc:1").Err(), redis.Nil)

	want := Aggregate(twoMatchCorpus())
	require.NoError(t, cache.Store(ctx, "abc:1", want))
	assert.Equal(t, []string{"features:abc:1"}, mr.Keys())
	assert.Equal(t, time.Minute, mr.TTL("features:abc:1"))

	got, ok, err := cache.Load(ctx, "abc:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Vectors(), got.Vectors())

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Load(ctx, "abc:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisFeatureCacheDefaults(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	cache := NewRedisFeatureCache(client, 0)
	require.NoError(t, cache.Store(ctx, "k", Aggregate(twoMatchCorpus())))
	assert.Equal(t, DefaultFeatureTTL, mr.TTL("features:k"))

	require.NoError(t, mr.Set("features:bad", "not json"))
	_, _, err := cache.Load(ctx, "bad")
	assert.Error(t, err)

	mr.Close()
	_, _, err = cache.Load(ctx, "k")
	assert.Error(t, err)
}

func TestDecodeFeatureSet(t *testing.T) {
	fs, err := decodeFeatureSet([]byte(`[{"team":"Arsenal","matches":2,"values":[13.5,9,5.5,4,6.5,4.5,9.5,11.5,1,2,0.5,0]}]`))
	require.NoError(t, err)
	v, ok := fs.Get("Arsenal")
	require.True(t, ok)
	assert.Equal(t, 13.5, v.Own(Shots))
	assert.Equal(t, 11.5, v.Opponent(Fouls))

	_, err = decodeFeatureSet([]byte("nope"))
	assert.Error(t, err)
}
