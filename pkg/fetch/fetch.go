// Package fetch downloads season result files from football-data.co.uk.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/richard-senior/matchpredict/internal/config"
	"github.com/richard-senior/matchpredict/internal/logger"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/transport"
)

var seasonPattern = regexp.MustCompile(`^(\d{4})/(\d{4})$`)

// Getter fetches a URL body. transport.Get satisfies it.
type Getter func(ctx context.Context, url, accept string) ([]byte, error)

// SeasonCode converts "2024/2025" to the "2425" used in football-data URLs.
func SeasonCode(season string) (string, error) {
	if _, _, err := parseSeason(season); err != nil {
		return "", err
	}
	season = strings.TrimSpace(season)
	return season[2:4] + season[7:9], nil
}

func parseSeason(season string) (int, int, error) {
	m := seasonPattern.FindStringSubmatch(strings.TrimSpace(season))
	if m == nil {
		return 0, 0, fmt.Errorf("season must be in the format 'yyyy/yyyy', got %q", season)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end != start+1 {
		return 0, 0, fmt.Errorf("season %q must span consecutive years", season)
	}
	return start, end, nil
}

// IsCurrentSeason reports whether now falls inside season, taken to run
// from 1 August to 31 July.
func IsCurrentSeason(season string, now time.Time) bool {
	start, _, err := parseSeason(season)
	if err != nil {
		return false
	}
	from := time.Date(start, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	return !now.Before(from) && now.Before(to)
}

// Fetcher writes downloaded seasons into Dir.
type Fetcher struct {
	BaseURL string
	League  string
	Prefix  string
	Dir     string

	Get Getter
	Now func() time.Time
}

// New builds a Fetcher from configuration.
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		BaseURL: strings.TrimRight(cfg.Fetch.BaseURL, "/"),
		League:  cfg.Fetch.League,
		Prefix:  cfg.Fetch.Prefix,
		Dir:     cfg.Data.Dir,
		Get:     transport.Get,
		Now:     time.Now,
	}
}

// Result describes what happened to one season.
type Result struct {
	Season  string
	Path    string
	Skipped bool
	Matches int
	Err     error
}

// URL is where a season's file lives.
func (f *Fetcher) URL(code string) string {
	return fmt.Sprintf("%s/%s/%s.csv", f.BaseURL, code, f.League)
}

// Path is where a season's file is written.
func (f *Fetcher) Path(code string) string {
	return filepath.Join(f.Dir, fmt.Sprintf("%s %s.csv", f.Prefix, code))
}

// Fetch downloads each season. A failure for one season does not stop the
// others; the joined errors are returned alongside the per-season results.
func (f *Fetcher) Fetch(ctx context.Context, seasons []string) ([]Result, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	var (
		results []Result
		errs    []error
	)
	for _, season := range seasons {
		r := f.fetchSeason(ctx, season)
		if r.Err != nil {
			logger.Warn("Failed to fetch season", season, r.Err)
			errs = append(errs, fmt.Errorf("%s: %w", season, r.Err))
		}
		results = append(results, r)
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
	}
	return results, errors.Join(errs...)
}

func (f *Fetcher) fetchSeason(ctx context.Context, season string) Result {
	r := Result{Season: season}
	code, err := SeasonCode(season)
	if err != nil {
		r.Err = err
		return r
	}
	r.Path = f.Path(code)

	if _, err := os.Stat(r.Path); err == nil && !IsCurrentSeason(season, f.Now()) {
		logger.Debug("Season already downloaded", r.Path)
		r.Skipped = true
		return r
	}

	url := f.URL(code)
	logger.Info("Fetching", url)
	data, err := f.Get(ctx, url, "text/csv")
	if err != nil {
		r.Err = err
		return r
	}

	// refuse anything the loader would reject
	records, _, err := predictor.ParseMatchCSV(bytes.NewReader(data), url)
	if err != nil {
		r.Err = err
		return r
	}
	r.Matches = len(records)

	tmp := r.Path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		r.Err = fmt.Errorf("failed to write %s: %w", tmp, err)
		return r
	}
	if err := os.Rename(tmp, r.Path); err != nil {
		r.Err = fmt.Errorf("failed to move %s into place: %w", r.Path, err)
		return r
	}
	logger.Info("Saved", r.Path, r.Matches, "matches")
	return r
}

var seasonLink = regexp.MustCompile(`mmz4281/(\d{2})(\d{2})/([A-Za-z0-9]+)\.csv$`)

// DiscoverSeasons reads a football-data league page and returns the seasons
// that have a results file for league, oldest first.
func (f *Fetcher) DiscoverSeasons(ctx context.Context, pageURL string) ([]string, error) {
	page, err := f.Get(ctx, pageURL, "text/html")
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		m := seasonLink.FindStringSubmatch(href)
		if m == nil || !strings.EqualFold(m[3], f.League) {
			return
		}
		if season, ok := seasonFromCode(m[1], m[2]); ok {
			seen[season] = true
		}
	})

	seasons := make([]string, 0, len(seen))
	for s := range seen {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)
	return seasons, nil
}

// seasonFromCode expands "93","94" to "1993/1994" and "24","25" to "2024/2025".
func seasonFromCode(a, b string) (string, bool) {
	start, err := strconv.Atoi(a)
	if err != nil {
		return "", false
	}
	if start >= 90 {
		start += 1900
	} else {
		start += 2000
	}
	season := fmt.Sprintf("%d/%d", start, start+1)
	if season[7:9] != b {
		return "", false
	}
	return season, true
}
