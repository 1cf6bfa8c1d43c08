package predictor

import (
	"fmt"
	"sort"
)

// Slot is a team-relative statistic: what the team itself recorded ("own")
// or what its opponent recorded against it ("opponent").
type Slot int

const (
	OwnShots Slot = iota
	OpponentShots
	OwnShotsOnTarget
	OpponentShotsOnTarget
	OwnCorners
	OpponentCorners
	OwnFouls
	OpponentFouls
	OwnYellows
	OpponentYellows
	OwnReds
	OpponentReds
	NumSlots
)

// OwnSlot returns the slot holding the team's own value of k.
func OwnSlot(k StatKind) Slot { return Slot(2 * k) }

// OpponentSlot returns the slot holding the opponent's value of k.
func OpponentSlot(k StatKind) Slot { return Slot(2*k + 1) }

func (s Slot) Kind() StatKind { return StatKind(s / 2) }

func (s Slot) IsOwn() bool { return s%2 == 0 }

func (s Slot) String() string {
	if s < 0 || s >= NumSlots {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	if s.IsOwn() {
		return "own-" + s.Kind().String()
	}
	return "opponent-" + s.Kind().String()
}

// Projection is one fixture seen from one team's side, in Slot order.
type Projection [NumSlots]float64

// Project re-expresses a fixture relative to team. When the team was at home
// the home columns become its own slots; when away the prefixes swap.
// ok is false when the team did not play in the fixture.
func Project(m *MatchRecord, team string) (p Projection, ok bool) {
	var own, opp *[NumStatKinds]float64
	switch team {
	case m.HomeTeam:
		own, opp = &m.Home, &m.Away
	case m.AwayTeam:
		own, opp = &m.Away, &m.Home
	default:
		return p, false
	}
	for k := StatKind(0); k < NumStatKinds; k++ {
		p[OwnSlot(k)] = own[k]
		p[OpponentSlot(k)] = opp[k]
	}
	return p, true
}

// TeamFeatureVector holds a team's mean projected statistics.
type TeamFeatureVector struct {
	Team    string     `json:"team"`
	Matches int        `json:"matches"`
	Values  Projection `json:"values"`
}

// Get returns the mean value of slot s.
func (v *TeamFeatureVector) Get(s Slot) float64 { return v.Values[s] }

// Own returns the team's own mean for statistic k.
func (v *TeamFeatureVector) Own(k StatKind) float64 { return v.Values[OwnSlot(k)] }

// Opponent returns the mean its opponents recorded for statistic k.
func (v *TeamFeatureVector) Opponent(k StatKind) float64 { return v.Values[OpponentSlot(k)] }

// Named returns the vector keyed by slot name, for display.
func (v *TeamFeatureVector) Named() map[string]float64 {
	out := make(map[string]float64, NumSlots)
	for s := Slot(0); s < NumSlots; s++ {
		out[s.String()] = v.Values[s]
	}
	return out
}

// FeatureSet maps team names to their aggregated vectors. It is read-only once built.
type FeatureSet struct {
	vectors map[string]*TeamFeatureVector
}

// NewFeatureSet indexes vectors by team. A later vector for the same team
// replaces an earlier one.
func NewFeatureSet(vectors []*TeamFeatureVector) *FeatureSet {
	fs := &FeatureSet{vectors: make(map[string]*TeamFeatureVector, len(vectors))}
	for _, v := range vectors {
		fs.vectors[v.Team] = v
	}
	return fs
}

// Get looks up a team's vector by its exact name.
func (fs *FeatureSet) Get(team string) (*TeamFeatureVector, bool) {
	v, ok := fs.vectors[team]
	return v, ok
}

// Len is the number of teams in the set.
func (fs *FeatureSet) Len() int { return len(fs.vectors) }

// Teams returns the team names in alphabetical order.
func (fs *FeatureSet) Teams() []string {
	teams := make([]string, 0, len(fs.vectors))
	for t := range fs.vectors {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}

// Vectors returns every vector ordered by team name.
func (fs *FeatureSet) Vectors() []*TeamFeatureVector {
	out := make([]*TeamFeatureVector, 0, len(fs.vectors))
	for _, t := range fs.Teams() {
		out = append(out, fs.vectors[t])
	}
	return out
}

// Aggregate builds one vector per team named in records, averaging each slot
// over every fixture the team played with equal weight.
func Aggregate(records []*MatchRecord) *FeatureSet {
	return AggregateWithMinimum(records, 1)
}

// AggregateWithMinimum is Aggregate but leaves out teams with fewer than
// minMatches fixtures.
func AggregateWithMinimum(records []*MatchRecord, minMatches int) *FeatureSet {
	sums := make(map[string]*TeamFeatureVector)
	order := Teams(records)
	for _, t := range order {
		sums[t] = &TeamFeatureVector{Team: t}
	}

	for _, m := range records {
		teams := []string{m.HomeTeam}
		if m.AwayTeam != m.HomeTeam {
			teams = append(teams, m.AwayTeam)
		}
		for _, t := range teams {
			p, _ := Project(m, t)
			acc := sums[t]
			acc.Matches++
			for s := range p {
				acc.Values[s] += p[s]
			}
		}
	}

	vectors := make([]*TeamFeatureVector, 0, len(sums))
	for _, t := range order {
		acc := sums[t]
		if acc.Matches == 0 || acc.Matches < minMatches {
			continue
		}
		n := float64(acc.Matches)
		for s := range acc.Values {
			acc.Values[s] /= n
		}
		vectors = append(vectors, acc)
	}
	return NewFeatureSet(vectors)
}
