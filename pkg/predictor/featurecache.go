package predictor

import (
	"context"
	"fmt"

	"github.com/richard-senior/matchpredict/internal/logger"
)

// FeatureCache stores aggregated feature sets keyed by a corpus cache key.
// Load reports ok=false on a miss.
type FeatureCache interface {
	Load(ctx context.Context, key string) (fs *FeatureSet, ok bool, err error)
	Store(ctx context.Context, key string, fs *FeatureSet) error
}

// NopFeatureCache never hits and discards stores.
type NopFeatureCache struct{}

func (NopFeatureCache) Load(context.Context, string) (*FeatureSet, bool, error) {
	return nil, false, nil
}

func (NopFeatureCache) Store(context.Context, string, *FeatureSet) error { return nil }

// CacheKey identifies the feature set derived from a corpus. The minimum
// match threshold is part of the key because it changes which teams survive.
func CacheKey(checksum string, minMatches int) string {
	return fmt.Sprintf("%s:min%d", checksum, minMatches)
}

// BuildFeatures returns the feature set for corpus, reading it from cache when
// the corpus files are unchanged. Cache failures are logged and the set is
// recomputed.
func BuildFeatures(ctx context.Context, corpus *Corpus, cache FeatureCache, minMatches int) (*FeatureSet, error) {
	if cache == nil {
		cache = NopFeatureCache{}
	}
	key := CacheKey(corpus.Checksum, minMatches)

	fs, ok, err := cache.Load(ctx, key)
	switch {
	case err != nil:
		logger.Warn("Feature cache read failed, recomputing", err)
	case ok:
		logger.Info("Loaded team features from cache", fs.Len(), "teams")
		return fs, nil
	}

	fs = AggregateWithMinimum(corpus.Matches, minMatches)
	logger.Info("Aggregated team features", fs.Len(), "teams from", len(corpus.Matches), "matches")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cache.Store(ctx, key, fs); err != nil {
		logger.Warn("Feature cache write failed", err)
	}
	return fs, nil
}
