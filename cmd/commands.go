package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/richard-senior/matchpredict/internal/config"
	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/app"
	"github.com/richard-senior/matchpredict/pkg/dashboard"
	"github.com/richard-senior/matchpredict/pkg/fetch"
	"github.com/richard-senior/matchpredict/pkg/model"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/prompts"
	"github.com/richard-senior/matchpredict/pkg/resources"
	"github.com/richard-senior/matchpredict/pkg/sentiment"
	"github.com/richard-senior/matchpredict/pkg/server"
	"github.com/richard-senior/matchpredict/pkg/tools"
	"github.com/richard-senior/matchpredict/pkg/transport"
)

// withApp loads the data, features and model, runs fn and releases the caches.
func withApp(ctx context.Context, cfg *config.Config, fn func(a *app.App) error) error {
	a, err := app.Load(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Failed to close app:", err)
		}
	}()
	return fn(a)
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withApp(ctx, cfg, func(a *app.App) error {
		return dashboard.NewServer(a).ListenAndServe(ctx, *addr)
	})
}

func runMCP(ctx context.Context, cfg *config.Config, args []string) error {
	return withApp(ctx, cfg, func(a *app.App) error {
		s := server.NewServer(transport.NewStdioTransport())
		tools.Register(s, a)
		resources.Register(s, a)
		if err := prompts.Register(s, cfg.Server.PromptDir); err != nil {
			return err
		}
		return s.Start(ctx)
	})
}

func runTeams(ctx context.Context, cfg *config.Config, args []string) error {
	return withApp(ctx, cfg, func(a *app.App) error {
		for _, team := range a.Teams() {
			fmt.Println(team)
		}
		return nil
	})
}

func runPredict(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	home := fs.String("home", "", "home team")
	away := fs.String("away", "", "away team")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *home == "" || *away == "" {
		return errors.New("both -home and -away are required")
	}
	return withApp(ctx, cfg, func(a *app.App) error {
		report, err := a.Predict(*home, *away)
		if err != nil {
			var unknown *predictor.UnknownTeamError
			if errors.As(err, &unknown) && len(unknown.Suggestions) > 0 {
				return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(unknown.Suggestions, ", "))
			}
			return err
		}
		md, err := dashboard.RenderMarkdown(ctx, report)
		if err != nil {
			return err
		}
		fmt.Println(md)
		return nil
	})
}

func runEvaluate(ctx context.Context, cfg *config.Config, args []string) error {
	return withApp(ctx, cfg, func(a *app.App) error {
		ev, err := model.Evaluate(a.Model, a.Corpus.Matches)
		if err != nil {
			return err
		}
		fmt.Println(ev)
		return nil
	})
}

func runExportTraining(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export-training", flag.ExitOnError)
	out := fs.String("out", "training.csv", "output CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	corpus, err := predictor.LoadMatchFiles(cfg.MatchGlob())
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	w := bufio.NewWriter(f)
	if err := predictor.WriteTrainingCSV(w, corpus.Matches); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	logger.Info("Wrote", len(corpus.Matches), "training rows to", *out)
	return f.Close()
}

func runLabelSentiment(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("label-sentiment", flag.ExitOnError)
	in := fs.String("in", "", "CSV of free-text records")
	out := fs.String("out", cfg.Data.SentimentFile, "team,sentiment_label CSV to write")
	textCol := fs.String("text", cfg.Sentiment.TextColumn, "column holding the text")
	teamCol := fs.String("team", cfg.Sentiment.TeamColumn, "column holding the team")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("-in is required")
	}

	src, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", *in, err)
	}
	defer src.Close()
	dst, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}

	labeler := sentiment.NewLabeler(sentiment.NewVaderScorer(), sentiment.Thresholds{
		Positive: cfg.Sentiment.PositiveThreshold,
		Negative: cfg.Sentiment.NegativeThreshold,
	})
	tallies, err := sentiment.LabelRecords(src, dst, labeler, *textCol, *teamCol)
	if err != nil {
		dst.Close()
		return err
	}
	for _, team := range tallies.Teams() {
		t := tallies.For(team)
		logger.Info(fmt.Sprintf("%s: %d positive, %d neutral, %d negative", team, t.Positive, t.Neutral, t.Negative))
	}
	return dst.Close()
}

func runFetch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	discover := fs.String("discover", "", "league page to read the available seasons from")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := fetch.New(cfg)
	seasons := cfg.Fetch.Seasons
	if fs.NArg() > 0 {
		seasons = fs.Args()
	}
	if *discover != "" {
		found, err := f.DiscoverSeasons(ctx, *discover)
		if err != nil {
			return err
		}
		logger.Info("Discovered", len(found), "seasons")
		seasons = found
	}

	results, err := f.Fetch(ctx, seasons)
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("%-10s failed: %v\n", r.Season, r.Err)
		case r.Skipped:
			fmt.Printf("%-10s up to date (%s)\n", r.Season, r.Path)
		default:
			fmt.Printf("%-10s %d matches -> %s\n", r.Season, r.Matches, r.Path)
		}
	}
	return err
}
