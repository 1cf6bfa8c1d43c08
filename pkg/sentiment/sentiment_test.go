package sentiment

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedScorer returns a preset score per cleaned text.
type fixedScorer map[string]float64

func (f fixedScorer) Compound(text string) float64 { return f[text] }

func TestClassifyThresholds(t *testing.T) {
	th := DefaultThresholds
	assert.Equal(t, Positive, th.Classify(0.051))
	assert.Equal(t, Neutral, th.Classify(0.05))
	assert.Equal(t, Neutral, th.Classify(0))
	assert.Equal(t, Neutral, th.Classify(-0.05))
	assert.Equal(t, Negative, th.Classify(-0.051))
}

func TestCleanText(t *testing.T) {
	got := CleanText("What a GOAL!!! @Arsenal #COYG https://t.co/xyz www.example.com")
	assert.Equal(t, "what a goal    ", got)
}

func TestLabelerCleansBeforeScoring(t *testing.T) {
	l := NewLabeler(fixedScorer{"great win ": 0.8}, DefaultThresholds)
	label, score := l.Label("Great win! #COYG")
	assert.Equal(t, Positive, label)
	assert.Equal(t, 0.8, score)
}

func TestVaderScorer(t *testing.T) {
	v := NewVaderScorer()
	assert.Greater(t, v.Compound("what a wonderful brilliant performance"), 0.05)
	assert.Less(t, v.Compound("terrible awful disgraceful defending"), -0.05)
}

func TestReadTallies(t *testing.T) {
	body := "team,sentiment_label\n" +
		"Arsenal,positive\nArsenal,positive\nArsenal,negative\n" +
		"Chelsea,neutral\n" +
		"Chelsea,ecstatic\n" +
		",positive\n"

	ts, err := ReadTallies(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"Arsenal", "Chelsea"}, ts.Teams())

	arsenal := ts.For("Arsenal")
	assert.Equal(t, 2, arsenal.Positive)
	assert.Equal(t, 1, arsenal.Negative)
	assert.Equal(t, 3, arsenal.Total())
	assert.InDelta(t, 2.0/3, arsenal.Share(Positive), 1e-12)

	assert.Equal(t, 1, ts.For("Chelsea").Total())
}

func TestAbsentTeamHasEmptyTally(t *testing.T) {
	ts := Tallies{}
	tally := ts.For("Luton")
	assert.True(t, tally.IsEmpty())
	assert.Equal(t, "Luton", tally.Team)
	assert.Equal(t, 0.0, tally.Share(Positive))
}

func TestReadTalliesRequiresColumns(t *testing.T) {
	_, err := ReadTallies(strings.NewReader("club,label\nArsenal,positive\n"))
	assert.Error(t, err)
}

func TestLoadTalliesMissingFile(t *testing.T) {
	ts, err := LoadTallies(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Empty(t, ts)
}

func TestLabelRecords(t *testing.T) {
	in := "id,text,partition_1\n" +
		"1,Great win!,Arsenal\n" +
		"2,awful,Chelsea\n" +
		"3,meh,Chelsea\n" +
		"4,no team,\n"
	scorer := fixedScorer{"great win": 0.6, "awful": -0.5}

	var out bytes.Buffer
	ts, err := LabelRecords(strings.NewReader(in), &out, NewLabeler(scorer, DefaultThresholds), "text", "partition_1")
	require.NoError(t, err)

	assert.Equal(t, "team,sentiment_label\nArsenal,positive\nChelsea,negative\nChelsea,neutral\n", out.String())
	assert.Equal(t, 1, ts.For("Chelsea").Negative)

	// the output reads back into the same tallies
	back, err := ReadTallies(&out)
	require.NoError(t, err)
	assert.Equal(t, ts, back)
}

func TestParseLabel(t *testing.T) {
	l, err := ParseLabel(" Positive ")
	require.NoError(t, err)
	assert.Equal(t, Positive, l)
	_, err = ParseLabel("angry")
	assert.Error(t, err)
}
