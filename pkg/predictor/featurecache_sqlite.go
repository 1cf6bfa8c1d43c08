package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/store"
)

// TeamFeatureRow is one team's aggregated vector as stored in sqlite.
type TeamFeatureRow struct {
	CacheKey string `json:"cacheKey" column:"cache_key" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	Team     string `json:"team" column:"team" dbtype:"TEXT NOT NULL" primary:"true"`
	Matches  int    `json:"matches" column:"matches" dbtype:"INTEGER NOT NULL"`

	OwnShots              float64 `json:"ownShots" column:"own_shots" dbtype:"REAL NOT NULL"`
	OpponentShots         float64 `json:"opponentShots" column:"opponent_shots" dbtype:"REAL NOT NULL"`
	OwnShotsOnTarget      float64 `json:"ownShotsOnTarget" column:"own_shots_on_target" dbtype:"REAL NOT NULL"`
	OpponentShotsOnTarget float64 `json:"opponentShotsOnTarget" column:"opponent_shots_on_target" dbtype:"REAL NOT NULL"`
	OwnCorners            float64 `json:"ownCorners" column:"own_corners" dbtype:"REAL NOT NULL"`
	OpponentCorners       float64 `json:"opponentCorners" column:"opponent_corners" dbtype:"REAL NOT NULL"`
	OwnFouls              float64 `json:"ownFouls" column:"own_fouls" dbtype:"REAL NOT NULL"`
	OpponentFouls         float64 `json:"opponentFouls" column:"opponent_fouls" dbtype:"REAL NOT NULL"`
	OwnYellows            float64 `json:"ownYellows" column:"own_yellows" dbtype:"REAL NOT NULL"`
	OpponentYellows       float64 `json:"opponentYellows" column:"opponent_yellows" dbtype:"REAL NOT NULL"`
	OwnReds               float64 `json:"ownReds" column:"own_reds" dbtype:"REAL NOT NULL"`
	OpponentReds          float64 `json:"opponentReds" column:"opponent_reds" dbtype:"REAL NOT NULL"`

	CreatedAt int64 `json:"createdAt" column:"created_at" dbtype:"INTEGER NOT NULL"`
}

func (r *TeamFeatureRow) GetTableName() string { return "team_features" }

func (r *TeamFeatureRow) GetPrimaryKey() map[string]any {
	return map[string]any{"cache_key": r.CacheKey, "team": r.Team}
}

func (r *TeamFeatureRow) BeforeSave() error {
	if r.CacheKey == "" || r.Team == "" {
		return fmt.Errorf("team feature row needs a cache key and team")
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	return nil
}

func (r *TeamFeatureRow) AfterSave() error { return nil }

func (r *TeamFeatureRow) slots() [NumSlots]*float64 {
	return [NumSlots]*float64{
		&r.OwnShots, &r.OpponentShots,
		&r.OwnShotsOnTarget, &r.OpponentShotsOnTarget,
		&r.OwnCorners, &r.OpponentCorners,
		&r.OwnFouls, &r.OpponentFouls,
		&r.OwnYellows, &r.OpponentYellows,
		&r.OwnReds, &r.OpponentReds,
	}
}

func newTeamFeatureRow(key string, v *TeamFeatureVector) *TeamFeatureRow {
	r := &TeamFeatureRow{CacheKey: key, Team: v.Team, Matches: v.Matches}
	for s, p := range r.slots() {
		*p = v.Values[s]
	}
	return r
}

func (r *TeamFeatureRow) vector() *TeamFeatureVector {
	v := &TeamFeatureVector{Team: r.Team, Matches: r.Matches}
	for s, p := range r.slots() {
		v.Values[s] = *p
	}
	return v
}

// SQLiteFeatureCache keeps the feature set for the most recent corpus in a
// sqlite table. Storing a new key removes rows for older keys.
type SQLiteFeatureCache struct {
	db *store.DB
}

// NewSQLiteFeatureCache creates the team_features table if it is missing.
func NewSQLiteFeatureCache(ctx context.Context, db *store.DB) (*SQLiteFeatureCache, error) {
	if err := db.CreateTable(ctx, &TeamFeatureRow{}); err != nil {
		return nil, err
	}
	return &SQLiteFeatureCache{db: db}, nil
}

// Load returns the rows stored under key. A key with no rows is a miss.
func (c *SQLiteFeatureCache) Load(ctx context.Context, key string) (*FeatureSet, bool, error) {
	rows, err := c.db.FindWhere(ctx, &TeamFeatureRow{}, "cache_key = ?", key)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	vectors := make([]*TeamFeatureVector, 0, len(rows))
	for _, r := range rows {
		vectors = append(vectors, r.(*TeamFeatureRow).vector())
	}
	return NewFeatureSet(vectors), true, nil
}

// Store writes fs under key and drops every other key's rows in the same
// transaction.
func (c *SQLiteFeatureCache) Store(ctx context.Context, key string, fs *FeatureSet) error {
	objs := make([]store.Persistable, 0, fs.Len())
	for _, v := range fs.Vectors() {
		objs = append(objs, newTeamFeatureRow(key, v))
	}
	removed, err := c.db.ReplaceWhere(ctx, objs, &TeamFeatureRow{}, "cache_key <> ?", key)
	if err != nil {
		return fmt.Errorf("failed to store team features: %w", err)
	}
	if removed > 0 {
		logger.Debug("Purged stale feature rows", removed)
	}
	return nil
}
