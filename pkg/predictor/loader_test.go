package predictor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMatchFilesConcatenatesSeasons(t *testing.T) {
	corpus, err := LoadMatchFiles("testdata/PL *.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"testdata/PL 2122.csv", "testdata/PL 2223.csv"}, corpus.Files)
	assert.Equal(t, LoadStats{Files: 2, Rows: 7, Kept: 4, Dropped: 3}, corpus.Stats)
	require.Len(t, corpus.Matches, 4)
	assert.Len(t, corpus.Checksum, 64)

	first := corpus.Matches[0]
	assert.Equal(t, "Arsenal", first.HomeTeam)
	assert.Equal(t, "Chelsea", first.AwayTeam)
	assert.Equal(t, HomeWin, first.Result)
	assert.Equal(t, 15.0, first.Home[Shots])
	assert.Equal(t, 7.0, first.Home[Corners])
	assert.Equal(t, 12.0, first.Away[Fouls])
	assert.Equal(t, time.Date(2021, 8, 13, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 2, first.Row)

	// the BOM-prefixed file with two digit years
	last := corpus.Matches[3]
	assert.Equal(t, "Spurs", last.HomeTeam)
	assert.Equal(t, Draw, last.Result)
	assert.Equal(t, time.Date(2022, 8, 14, 0, 0, 0, 0, time.UTC), last.Date)
}

func TestLoadedCorpusAggregates(t *testing.T) {
	corpus, err := LoadMatchFiles("testdata/PL *.csv")
	require.NoError(t, err)
	fs := Aggregate(corpus.Matches)

	arsenal, _ := fs.Get("Arsenal")
	assert.InDelta(t, 41.0/3, arsenal.Own(Shots), 1e-12)
	chelsea, _ := fs.Get("Chelsea")
	assert.InDelta(t, 28.0/3, chelsea.Own(Shots), 1e-12)
	spurs, _ := fs.Get("Spurs")
	assert.Equal(t, 2, spurs.Matches)
	assert.Equal(t, 10.5, spurs.Own(Shots))
}

func TestNullRowsAreDropped(t *testing.T) {
	body := "HomeTeam,AwayTeam,FTR,HS,AS,HST,AST,HC,AC,HF,AF,HY,AY,HR,AR\n" +
		"Arsenal,Chelsea,H,,8,6,3,7,4,10,12,1,2,0,0\n" +
		"Arsenal,Chelsea,H,15,8,6,3,7,4,10,12,1,2,0,NA\n" +
		"Arsenal,Chelsea,X,15,8,6,3,7,4,10,12,1,2,0,0\n" +
		",Chelsea,H,15,8,6,3,7,4,10,12,1,2,0,0\n" +
		"Arsenal,Chelsea,H,15,8,6,3,7,4,10,12,1,2,0\n" +
		"Chelsea,Arsenal,A,10,12,4,5,5,6,11,9,2,1,0,1\n"

	records, stats, err := ParseMatchCSV(strings.NewReader(body), "inline")
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Rows)
	assert.Equal(t, 5, stats.Dropped)
	require.Len(t, records, 1)
	assert.Equal(t, "Chelsea", records[0].HomeTeam)

	fs := Aggregate(records)
	arsenal, ok := fs.Get("Arsenal")
	require.True(t, ok)
	assert.Equal(t, 1, arsenal.Matches)
	assert.Equal(t, 12.0, arsenal.Own(Shots))
}

func TestSchemaMismatch(t *testing.T) {
	_, err := LoadMatches([]string{"testdata/PL 2122.csv", "testdata/missing_column.csv"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "testdata/missing_column.csv", se.File)
	assert.Equal(t, []string{"HC", "AC"}, se.Missing)
}

func TestEmptyFileIsSchemaMismatch(t *testing.T) {
	_, _, err := ParseMatchCSV(strings.NewReader(""), "empty.csv")
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestDataUnavailable(t *testing.T) {
	_, err := LoadMatchFiles(filepath.Join(t.TempDir(), "PL *.csv"))
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = LoadMatches(nil)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = LoadMatches([]string{filepath.Join(t.TempDir(), "gone.csv")})
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestChecksumTracksFileContents(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile("testdata/PL 2122.csv")
	require.NoError(t, err)
	path := filepath.Join(dir, "PL 2122.csv")
	require.NoError(t, os.WriteFile(path, src, 0644))

	a, err := LoadMatchFiles(filepath.Join(dir, "PL *.csv"))
	require.NoError(t, err)
	b, err := LoadMatchFiles(filepath.Join(dir, "PL *.csv"))
	require.NoError(t, err)
	assert.Equal(t, a.Checksum, b.Checksum)

	require.NoError(t, os.WriteFile(path, append(src, []byte("E0,17/09/2021,Spurs,Arsenal,1,1,D,9,9,2,2,10,10,3,3,1,1,0,0\n")...), 0644))
	c, err := LoadMatchFiles(filepath.Join(dir, "PL *.csv"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Checksum, c.Checksum)
	assert.Len(t, c.Matches, 4)
}

func TestResultEncoding(t *testing.T) {
	assert.Equal(t, 1, HomeWin.Encode())
	assert.Equal(t, 0, Draw.Encode())
	assert.Equal(t, -1, AwayWin.Encode())

	_, ok := ParseResult("W")
	assert.False(t, ok)
}

func TestStatColumns(t *testing.T) {
	assert.Equal(t, []string{"HS", "AS", "HST", "AST", "HC", "AC", "HF", "AF", "HY", "AY", "HR", "AR"}, StatColumns)

	m := twoMatchCorpus()[0]
	v, ok := m.Column("AST")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
	_, ok = m.Column("FTHG")
	assert.False(t, ok)
}
