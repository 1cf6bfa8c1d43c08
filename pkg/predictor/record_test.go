package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTeamRecords(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2023, 8, d, 0, 0, 0, 0, time.UTC) }
	var zero [NumStatKinds]float64
	records := []*MatchRecord{
		// deliberately out of date order
		{HomeTeam: "Spurs", AwayTeam: "Arsenal", Result: AwayWin, Date: day(20), Home: zero, Away: zero},
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", Result: HomeWin, Date: day(6)},
		{HomeTeam: "Chelsea", AwayTeam: "Arsenal", Result: Draw, Date: day(13)},
	}

	got := CalculateTeamRecords(records)
	require.Len(t, got, 3)

	arsenal := got["Arsenal"]
	assert.Equal(t, 3, arsenal.GamesPlayed)
	assert.Equal(t, 1, arsenal.HomeGamesPlayed)
	assert.Equal(t, 2, arsenal.AwayGamesPlayed)
	assert.Equal(t, 2, arsenal.Wins())
	assert.Equal(t, 1, arsenal.Draws())
	assert.Equal(t, 0, arsenal.Losses())
	assert.Equal(t, 7, arsenal.Points)
	assert.InDelta(t, 7.0/3, arsenal.PointsPerGame(), 1e-12)
	assert.Equal(t, "WDW", arsenal.FormString())

	chelsea := got["Chelsea"]
	assert.Equal(t, 1, chelsea.Points)
	assert.Equal(t, "DL", chelsea.FormString())
	assert.Equal(t, 1, chelsea.HomeDraws)
	assert.Equal(t, 1, chelsea.AwayLosses)

	assert.Equal(t, "L", got["Spurs"].FormString())

	var order []string
	for _, r := range Standings(got) {
		order = append(order, r.Team)
	}
	assert.Equal(t, []string{"Arsenal", "Chelsea", "Spurs"}, order)
}

func TestStandingsTieBreaks(t *testing.T) {
	table := Standings(map[string]*TeamRecord{
		"B": {Team: "B", Points: 4, HomeWins: 1, GamesPlayed: 2},
		"A": {Team: "A", Points: 4, HomeWins: 1, GamesPlayed: 2},
		"C": {Team: "C", Points: 4, HomeWins: 1, GamesPlayed: 1},
		"D": {Team: "D", Points: 4, GamesPlayed: 4},
	})
	var order []string
	for _, r := range table {
		order = append(order, r.Team)
	}
	assert.Equal(t, []string{"C", "A", "B", "D"}, order)
}

func TestFormKeepsFiveMostRecent(t *testing.T) {
	form := 0
	for _, r := range []int{formWin, formLoss, formDraw, formWin, formWin, formLoss} {
		form = UpdateFormData(form, r)
	}
	assert.Equal(t, "LWWDL", FormString(form))
	assert.Equal(t, "", FormString(0))
}

func TestQuaternary(t *testing.T) {
	assert.Equal(t, "0", Quaternary(0))
	assert.Equal(t, "3", Quaternary(3))
	assert.Equal(t, "123", Quaternary(27))
}
