package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/richard-senior/matchpredict/internal/config"
	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/model"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/sentiment"
	"github.com/richard-senior/matchpredict/pkg/store"
)

// App is the process-wide context: everything loaded once at startup and
// shared read-only by the dashboard, the MCP tools and the CLI.
type App struct {
	Config    *config.Config
	Corpus    *predictor.Corpus
	Features  *predictor.FeatureSet
	Records   map[string]*predictor.TeamRecord
	Model     model.Classifier
	Sentiment sentiment.Tallies
	LoadedAt  time.Time

	closers []func() error
}

// TeamSummary is everything shown for one side of a fixture.
type TeamSummary struct {
	Team      string                       `json:"team"`
	Features  *predictor.TeamFeatureVector `json:"features"`
	Record    *predictor.TeamRecord        `json:"record"`
	Sentiment *sentiment.Tally             `json:"sentiment"`
}

// Report is one prediction request's result.
type Report struct {
	ID         string                    `json:"id"`
	CreatedAt  time.Time                 `json:"createdAt"`
	Home       *TeamSummary              `json:"home"`
	Away       *TeamSummary              `json:"away"`
	Input      predictor.PredictionInput `json:"input"`
	Prediction *model.Prediction         `json:"prediction"`
}

// Options let callers and tests substitute pieces that are normally loaded
// from the paths in the configuration.
type Options struct {
	Corpus    *predictor.Corpus
	Model     model.Classifier
	Sentiment sentiment.Tallies
	Cache     predictor.FeatureCache
}

// Load builds the App from configuration. Any failure here is fatal to the
// caller: there is no partially loaded mode.
func Load(ctx context.Context, cfg *config.Config) (*App, error) {
	return LoadWith(ctx, cfg, Options{})
}

func LoadWith(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	corpus := opts.Corpus
	if corpus == nil {
		var err error
		if corpus, err = predictor.LoadMatchFiles(cfg.MatchGlob()); err != nil {
			return nil, err
		}
	}
	a.Corpus = corpus

	cache := opts.Cache
	if cache == nil {
		var err error
		if cache, err = a.openCache(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	features, err := predictor.BuildFeatures(ctx, corpus, cache, cfg.Aggregation.MinMatches)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Features = features
	a.Records = predictor.CalculateTeamRecords(corpus.Matches)

	a.Model = opts.Model
	if a.Model == nil {
		if a.Model, err = model.LoadForest(cfg.Data.ModelPath); err != nil {
			a.Close()
			return nil, err
		}
	}
	if err := model.CheckSchema(a.Model); err != nil {
		a.Close()
		return nil, err
	}

	a.Sentiment = opts.Sentiment
	if a.Sentiment == nil {
		if a.Sentiment, err = sentiment.LoadTallies(cfg.Data.SentimentFile); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.LoadedAt = time.Now()
	logger.Highlight("Ready", a.Features.Len(), "teams", len(corpus.Matches), "matches")
	return a, nil
}

func (a *App) openCache(ctx context.Context) (predictor.FeatureCache, error) {
	c := a.Config.Cache
	switch c.Backend {
	case config.CacheSQLite:
		db, err := store.Open(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return predictor.NewSQLiteFeatureCache(ctx, db)
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		return predictor.NewRedisFeatureCache(client, c.TTL), nil
	default:
		return predictor.NopFeatureCache{}, nil
	}
}

// Close releases cache connections.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// Teams lists every team that can be selected.
func (a *App) Teams() []string { return a.Features.Teams() }

// Team summarises a single team or fails with an UnknownTeamError.
func (a *App) Team(name string) (*TeamSummary, error) {
	v, err := predictor.LookupTeam(a.Features, name)
	if err != nil {
		return nil, err
	}
	rec, ok := a.Records[name]
	if !ok {
		rec = &predictor.TeamRecord{Team: name}
	}
	return &TeamSummary{
		Team:      name,
		Features:  v,
		Record:    rec,
		Sentiment: a.Sentiment.For(name),
	}, nil
}

// Predict assembles and scores home v away, ranking the configured number of
// top features.
func (a *App) Predict(home, away string) (*Report, error) {
	return a.PredictTop(home, away, a.Config.Server.TopFeatures)
}

// PredictTop is Predict with top features ranked instead of the configured
// count. top must be between 1 and the number of model features.
func (a *App) PredictTop(home, away string, top int) (*Report, error) {
	if n := len(a.Model.FeatureNames()); top < 1 || top > n {
		return nil, fmt.Errorf("top must be between 1 and %d, got: %d", n, top)
	}
	in, err := predictor.Assemble(a.Features, home, away)
	if err != nil {
		return nil, err
	}
	p, err := model.Score(a.Model, in, top)
	if err != nil {
		return nil, fmt.Errorf("scoring %s v %s: %w", home, away, err)
	}
	h, err := a.Team(home)
	if err != nil {
		return nil, err
	}
	aw, err := a.Team(away)
	if err != nil {
		return nil, err
	}

	r := &Report{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Home:       h,
		Away:       aw,
		Input:      in,
		Prediction: p,
	}
	logger.Info("Predicted", home, "v", away, p.Label, p.Confidence)
	return r, nil
}
