package sentiment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/richard-senior/matchpredict/internal/logger"
)

// Tally counts labelled records for one team.
type Tally struct {
	Team     string `json:"team"`
	Positive int    `json:"positive"`
	Neutral  int    `json:"neutral"`
	Negative int    `json:"negative"`
}

func (t *Tally) Add(l Label) {
	switch l {
	case Positive:
		t.Positive++
	case Neutral:
		t.Neutral++
	case Negative:
		t.Negative++
	}
}

func (t *Tally) Count(l Label) int {
	switch l {
	case Positive:
		return t.Positive
	case Neutral:
		return t.Neutral
	case Negative:
		return t.Negative
	}
	return 0
}

func (t *Tally) Total() int { return t.Positive + t.Neutral + t.Negative }

// IsEmpty reports the "no data" state for a team with no records.
func (t *Tally) IsEmpty() bool { return t.Total() == 0 }

// Share is the fraction of records carrying l, zero for an empty tally.
func (t *Tally) Share(l Label) float64 {
	if t.IsEmpty() {
		return 0
	}
	return float64(t.Count(l)) / float64(t.Total())
}

// Tallies holds a tally per team name. Teams are matched by exact name.
type Tallies map[string]*Tally

// For returns the team's tally, or an empty one when the team has no records.
func (ts Tallies) For(team string) *Tally {
	if t, ok := ts[team]; ok {
		return t
	}
	return &Tally{Team: team}
}

func (ts Tallies) add(team string, l Label) {
	t, ok := ts[team]
	if !ok {
		t = &Tally{Team: team}
		ts[team] = t
	}
	t.Add(l)
}

// Teams returns the team names in alphabetical order.
func (ts Tallies) Teams() []string {
	out := make([]string, 0, len(ts))
	for t := range ts {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// LoadTallies reads a team,sentiment_label file. A missing file yields no
// tallies rather than an error so every team shows the "no data" state.
func LoadTallies(path string) (Tallies, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("Sentiment file not found, continuing without sentiment", path)
		return Tallies{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open sentiment file: %w", err)
	}
	defer f.Close()
	return ReadTallies(f)
}

// ReadTallies parses team,sentiment_label rows. Rows with an unknown label
// or an empty team are skipped.
func ReadTallies(r io.Reader) (Tallies, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Tallies{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sentiment header: %w", err)
	}
	teamCol, labelCol := indexOf(header, "team"), indexOf(header, "sentiment_label")
	if teamCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("sentiment file needs team and sentiment_label columns, got %v", header)
	}

	ts := Tallies{}
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sentiment file: %w", err)
		}
		if teamCol >= len(row) || labelCol >= len(row) {
			skipped++
			continue
		}
		team := strings.TrimSpace(row[teamCol])
		label, err := ParseLabel(row[labelCol])
		if team == "" || err != nil {
			skipped++
			continue
		}
		ts.add(team, label)
	}
	if skipped > 0 {
		logger.Debug("Skipped sentiment rows", skipped)
	}
	return ts, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// LabelRecords reads free-text records, labels each one and writes a
// team,sentiment_label file. It returns the per-team tallies it wrote.
func LabelRecords(r io.Reader, w io.Writer, l *Labeler, textColumn, teamColumn string) (Tallies, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read text header: %w", err)
	}
	textCol, teamCol := indexOf(header, textColumn), indexOf(header, teamColumn)
	if textCol < 0 || teamCol < 0 {
		return nil, fmt.Errorf("input needs %q and %q columns", textColumn, teamColumn)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"team", "sentiment_label"}); err != nil {
		return nil, err
	}

	ts := Tallies{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read text records: %w", err)
		}
		if textCol >= len(row) || teamCol >= len(row) {
			continue
		}
		team := strings.TrimSpace(row[teamCol])
		if team == "" {
			continue
		}
		label, _ := l.Label(row[textCol])
		if err := cw.Write([]string{team, string(label)}); err != nil {
			return nil, err
		}
		ts.add(team, label)
	}
	cw.Flush()
	return ts, cw.Error()
}
