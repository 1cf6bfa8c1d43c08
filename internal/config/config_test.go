package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Aggregation.MinMatches)
	assert.Equal(t, 0.05, cfg.Sentiment.PositiveThreshold)
	assert.Equal(t, -0.05, cfg.Sentiment.NegativeThreshold)
	assert.Equal(t, "data/PL *.csv", cfg.MatchGlob())
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
data:
  dir: /srv/matches
aggregation:
  min_matches: 5
cache:
  backend: redis
  redis_addr: cache:6379
  ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/matches/PL *.csv", cfg.MatchGlob())
	assert.Equal(t, 5, cfg.Aggregation.MinMatches)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	// untouched sections keep their defaults
	assert.Equal(t, 5, cfg.Server.TopFeatures)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("MATCHPREDICT_MIN_MATCHES", "3")
	t.Setenv("MATCHPREDICT_CACHE_BACKEND", "none")
	t.Setenv("MATCHPREDICT_ALLOWED_ORIGINS", "http://a,http://b")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Aggregation.MinMatches)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Aggregation.MinMatches = 0
	cfg.Cache.Backend = "memcached"
	cfg.Server.TopFeatures = 20

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_matches")
	assert.Contains(t, err.Error(), "cache.backend")
	assert.Contains(t, err.Error(), "top_features")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLogOutputRune(t *testing.T) {
	cfg := Default()
	for name, want := range map[string]rune{"console": 'c', "file": 'f', "both": 'b', "stderr": 'e'} {
		cfg.Log.Output = name
		assert.Equal(t, want, cfg.LogOutputRune(), name)
	}
}
