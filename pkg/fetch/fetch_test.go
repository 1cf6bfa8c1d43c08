package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/matchpredict/internal/config"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/transport"
)

const seasonCSV = "Div,Date,HomeTeam,AwayTeam,FTR,HS,AS,HST,AST,HF,AF,HC,AC,HY,AY,HR,AR\n" +
	"E0,16/08/2024,Man United,Fulham,H,14,10,5,2,12,10,7,8,2,3,0,0\n" +
	"E0,17/08/2024,Ipswich,Liverpool,A,7,18,2,5,9,14,2,10,3,1,0,0\n"

func TestSeasonCode(t *testing.T) {
	code, err := SeasonCode("2024/2025")
	require.NoError(t, err)
	assert.Equal(t, "2425", code)

	for _, bad := range []string{"2024-2025", "2024/2026", "24/25", ""} {
		_, err := SeasonCode(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsCurrentSeason(t *testing.T) {
	assert.True(t, IsCurrentSeason("2024/2025", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsCurrentSeason("2024/2025", time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsCurrentSeason("2024/2025", time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsCurrentSeason("garbage", time.Now()))
}

func testFetcher(t *testing.T, srv *httptest.Server) *Fetcher {
	t.Helper()
	cfg := config.Default()
	cfg.Fetch.BaseURL = srv.URL + "/mmz4281/"
	cfg.Data.Dir = t.TempDir()
	f := New(cfg)
	f.Now = func() time.Time { return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestFetchWritesLoadableFiles(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/mmz4281/2324/E0.csv", "/mmz4281/2425/E0.csv":
			w.Write([]byte(seasonCSV))
		case "/mmz4281/2223/E0.csv":
			w.Write([]byte("Div,Date,HomeTeam\nE0,01/01/2023,Arsenal\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	f := testFetcher(t, srv)

	results, err := f.Fetch(context.Background(), []string{"2022/2023", "2023/2024", "2024/2025", "2019/2020"})
	require.Error(t, err)
	assert.ErrorIs(t, err, predictor.ErrSchemaMismatch)
	var status *transport.StatusError
	assert.True(t, errors.As(err, &status))

	require.Len(t, results, 4)
	assert.Error(t, results[0].Err)
	assert.Equal(t, 2, results[1].Matches)
	assert.Equal(t, filepath.Join(f.Dir, "PL 2425.csv"), results[2].Path)
	assert.NoFileExists(t, filepath.Join(f.Dir, "PL 2223.csv"))

	corpus, err := predictor.LoadMatchFiles(filepath.Join(f.Dir, "PL *.csv"))
	require.NoError(t, err)
	assert.Len(t, corpus.Matches, 4)

	// a second run only refreshes the current season
	hits.Store(0)
	results, err = f.Fetch(context.Background(), []string{"2023/2024", "2024/2025"})
	require.NoError(t, err)
	assert.True(t, results[0].Skipped)
	assert.False(t, results[1].Skipped)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDiscoverSeasons(t *testing.T) {
	page := `<html><body>
		<a href="mmz4281/2425/E0.csv">Premier League</a>
		<a href="mmz4281/2425/E1.csv">Championship</a>
		<a href="https://www.football-data.co.uk/mmz4281/9394/E0.csv">Premier League</a>
		<a href="mmz4281/2324/E0.csv">Premier League</a>
		<a href="mmz4281/2324/E0.csv">duplicate</a>
		<a href="notes.txt">Notes</a>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	seasons, err := testFetcher(t, srv).DiscoverSeasons(context.Background(), srv.URL+"/englandm.php")
	require.NoError(t, err)
	assert.Equal(t, []string{"1993/1994", "2023/2024", "2024/2025"}, seasons)
}

func TestFetchCreatesDataDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(seasonCSV))
	}))
	defer srv.Close()
	f := testFetcher(t, srv)
	f.Dir = filepath.Join(f.Dir, "nested", "data")

	_, err := f.Fetch(context.Background(), []string{"2024/2025"})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.Dir, "PL 2425.csv"))
	assert.NoError(t, err)
}
