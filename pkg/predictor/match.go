package predictor

import (
	"fmt"
	"time"
)

// Result is the full-time result code as published by football-data.co.uk.
type Result string

const (
	HomeWin Result = "H"
	Draw    Result = "D"
	AwayWin Result = "A"
)

// ParseResult accepts "H", "D" or "A".
func ParseResult(s string) (Result, bool) {
	switch Result(s) {
	case HomeWin, Draw, AwayWin:
		return Result(s), true
	}
	return "", false
}

// Encode maps H, D and A onto the training label values 1, 0 and -1.
func (r Result) Encode() int {
	switch r {
	case HomeWin:
		return 1
	case AwayWin:
		return -1
	default:
		return 0
	}
}

// StatKind is one of the six statistics recorded for each side of a fixture.
type StatKind int

const (
	Shots StatKind = iota
	ShotsOnTarget
	Corners
	Fouls
	Yellows
	Reds
	NumStatKinds
)

var statSuffixes = [NumStatKinds]string{"S", "ST", "C", "F", "Y", "R"}
var statNames = [NumStatKinds]string{"shots", "shots-on-target", "corners", "fouls", "yellows", "reds"}

func (k StatKind) String() string {
	if k < 0 || k >= NumStatKinds {
		return fmt.Sprintf("StatKind(%d)", int(k))
	}
	return statNames[k]
}

// HomeColumn returns the home-prefixed column name, e.g. "HST".
func (k StatKind) HomeColumn() string { return "H" + statSuffixes[k] }

// AwayColumn returns the away-prefixed column name, e.g. "AST".
func (k StatKind) AwayColumn() string { return "A" + statSuffixes[k] }

// StatColumns lists the twelve statistic columns in file order.
var StatColumns = func() []string {
	cols := make([]string, 0, 2*NumStatKinds)
	for k := StatKind(0); k < NumStatKinds; k++ {
		cols = append(cols, k.HomeColumn(), k.AwayColumn())
	}
	return cols
}()

// RequiredColumns are the columns every season file must carry.
var RequiredColumns = append([]string{"HomeTeam", "AwayTeam", "FTR"}, StatColumns...)

// MatchRecord is one played fixture. Records are not modified after loading.
type MatchRecord struct {
	Source   string                `json:"source"`
	Row      int                   `json:"row"`
	Date     time.Time             `json:"date,omitempty"`
	HomeTeam string                `json:"homeTeam"`
	AwayTeam string                `json:"awayTeam"`
	Result   Result                `json:"result"`
	Home     [NumStatKinds]float64 `json:"home"`
	Away     [NumStatKinds]float64 `json:"away"`
}

// Involves reports whether team played in the fixture.
func (m *MatchRecord) Involves(team string) bool {
	return m.HomeTeam == team || m.AwayTeam == team
}

// Column returns the value of a statistic column such as "HS" or "AR".
func (m *MatchRecord) Column(name string) (float64, bool) {
	for k := StatKind(0); k < NumStatKinds; k++ {
		switch name {
		case k.HomeColumn():
			return m.Home[k], true
		case k.AwayColumn():
			return m.Away[k], true
		}
	}
	return 0, false
}

func (m *MatchRecord) String() string {
	return fmt.Sprintf("%s v %s (%s) [%s:%d]", m.HomeTeam, m.AwayTeam, m.Result, m.Source, m.Row)
}

// Teams returns every team named in the records, in order of first appearance.
func Teams(records []*MatchRecord) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, m := range records {
		for _, t := range []string{m.HomeTeam, m.AwayTeam} {
			if !seen[t] {
				seen[t] = true
				teams = append(teams, t)
			}
		}
	}
	return teams
}
