package model

import (
	"fmt"
	"strings"

	"github.com/richard-senior/matchpredict/pkg/predictor"
)

// Outcome is a match result class as encoded in the training data.
type Outcome int

const (
	AwayWin Outcome = -1
	Draw    Outcome = 0
	HomeWin Outcome = 1
)

func (o Outcome) Label() string {
	switch o {
	case HomeWin:
		return "Home Win"
	case Draw:
		return "Draw"
	case AwayWin:
		return "Away Win"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func (o Outcome) String() string { return o.Label() }

// Key is a short stable identifier used in JSON and URLs.
func (o Outcome) Key() string {
	switch o {
	case HomeWin:
		return "home_win"
	case Draw:
		return "draw"
	case AwayWin:
		return "away_win"
	}
	return "unknown"
}

func (o Outcome) Valid() bool { return o >= AwayWin && o <= HomeWin }

// ParseOutcome accepts keys, labels or result codes (H, D, A).
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home_win", "home win", "h", "1":
		return HomeWin, nil
	case "draw", "d", "0":
		return Draw, nil
	case "away_win", "away win", "a", "-1":
		return AwayWin, nil
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// OutcomeOf converts a recorded full-time result.
func OutcomeOf(r predictor.Result) Outcome {
	return Outcome(r.Encode())
}
