package predictor

import (
	"fmt"
	"sort"
	"strings"
)

// Form digits, stored base-4 with the most recent result first.
const (
	formLoss = 1
	formDraw = 2
	formWin  = 3
)

// TeamRecord is a team's win/draw/loss history over the corpus. It is shown
// next to predictions and never used as model input.
type TeamRecord struct {
	Team            string `json:"team"`
	GamesPlayed     int    `json:"gamesPlayed"`
	HomeGamesPlayed int    `json:"homeGamesPlayed"`
	AwayGamesPlayed int    `json:"awayGamesPlayed"`

	HomeWins   int `json:"homeWins"`
	HomeDraws  int `json:"homeDraws"`
	HomeLosses int `json:"homeLosses"`
	AwayWins   int `json:"awayWins"`
	AwayDraws  int `json:"awayDraws"`
	AwayLosses int `json:"awayLosses"`

	Points int `json:"points"`

	// Form data (encoded as integers using quaternary system)
	Form     int `json:"form"`
	HomeForm int `json:"homeForm"`
	AwayForm int `json:"awayForm"`
}

func (r *TeamRecord) Wins() int   { return r.HomeWins + r.AwayWins }
func (r *TeamRecord) Draws() int  { return r.HomeDraws + r.AwayDraws }
func (r *TeamRecord) Losses() int { return r.HomeLosses + r.AwayLosses }

// PointsPerGame is zero for a team with no games.
func (r *TeamRecord) PointsPerGame() float64 {
	if r.GamesPlayed == 0 {
		return 0
	}
	return float64(r.Points) / float64(r.GamesPlayed)
}

// FormString renders the last five results, most recent first, e.g. "WWDLW".
func (r *TeamRecord) FormString() string { return FormString(r.Form) }

func (r *TeamRecord) String() string {
	return fmt.Sprintf("%s P%d W%d D%d L%d Pts%d %s", r.Team, r.GamesPlayed, r.Wins(), r.Draws(), r.Losses(), r.Points, r.FormString())
}

// Standings orders records like a league table: points, then wins, then
// fewest games played, then name.
func Standings(records map[string]*TeamRecord) []*TeamRecord {
	table := make([]*TeamRecord, 0, len(records))
	for _, r := range records {
		table = append(table, r)
	}
	sort.Slice(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins() != b.Wins() {
			return a.Wins() > b.Wins()
		}
		if a.GamesPlayed != b.GamesPlayed {
			return a.GamesPlayed < b.GamesPlayed
		}
		return a.Team < b.Team
	})
	return table
}

// CalculateTeamRecords tallies results for every team in records. Fixtures are
// applied in date order so that form reflects the most recent games.
func CalculateTeamRecords(records []*MatchRecord) map[string]*TeamRecord {
	ordered := append([]*MatchRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	out := make(map[string]*TeamRecord)
	get := func(team string) *TeamRecord {
		r, ok := out[team]
		if !ok {
			r = &TeamRecord{Team: team}
			out[team] = r
		}
		return r
	}

	for _, m := range ordered {
		home, away := get(m.HomeTeam), get(m.AwayTeam)
		home.GamesPlayed++
		home.HomeGamesPlayed++
		away.GamesPlayed++
		away.AwayGamesPlayed++

		switch m.Result {
		case HomeWin:
			home.HomeWins++
			home.Points += 3
			away.AwayLosses++
			home.recordHome(formWin)
			away.recordAway(formLoss)
		case AwayWin:
			away.AwayWins++
			away.Points += 3
			home.HomeLosses++
			home.recordHome(formLoss)
			away.recordAway(formWin)
		default:
			home.HomeDraws++
			home.Points++
			away.AwayDraws++
			away.Points++
			home.recordHome(formDraw)
			away.recordAway(formDraw)
		}
	}
	return out
}

func (r *TeamRecord) recordHome(result int) {
	r.Form = UpdateFormData(r.Form, result)
	r.HomeForm = UpdateFormData(r.HomeForm, result)
}

func (r *TeamRecord) recordAway(result int) {
	r.Form = UpdateFormData(r.Form, result)
	r.AwayForm = UpdateFormData(r.AwayForm, result)
}

// UpdateFormData pushes result onto the front of a quaternary-encoded form
// value, keeping the five most recent results.
func UpdateFormData(previousForm int, result int) int {
	s := fmt.Sprintf("%d", result)
	if previousForm > 0 {
		s += Quaternary(previousForm)
	}
	if len(s) > 5 {
		s = s[:5]
	}

	ret := 0
	multiplier := 1
	for i := len(s) - 1; i >= 0; i-- {
		ret += int(s[i]-'0') * multiplier
		multiplier *= 4
	}
	return ret
}

// Quaternary converts decimal to quaternary (base-4) string
func Quaternary(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []string
	for n > 0 {
		digits = append([]string{fmt.Sprintf("%d", n%4)}, digits...)
		n /= 4
	}
	return strings.Join(digits, "")
}

// FormString decodes a form value into W, D and L letters, most recent first.
func FormString(form int) string {
	if form == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range Quaternary(form) {
		switch c - '0' {
		case formWin:
			b.WriteByte('W')
		case formDraw:
			b.WriteByte('D')
		case formLoss:
			b.WriteByte('L')
		}
	}
	return b.String()
}
