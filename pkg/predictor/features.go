package predictor

import (
	"fmt"

	"github.com/richard-senior/matchpredict/pkg/util"
)

// Role is the side a team takes in the fixture being predicted.
type Role int

const (
	RoleHome Role = iota
	RoleAway
)

func (r Role) String() string {
	if r == RoleHome {
		return "home"
	}
	return "away"
}

// FeatureField binds one classifier input to the team and statistic it is read from.
type FeatureField struct {
	Name string
	Role Role
	Kind StatKind
}

const NumFeatures = 12

// FeatureSchema is the exact input order the outcome classifier was trained on.
// H* fields are the home team's own averages, A* fields the away team's own averages.
var FeatureSchema = [NumFeatures]FeatureField{
	{"HS", RoleHome, Shots},
	{"AS", RoleAway, Shots},
	{"HST", RoleHome, ShotsOnTarget},
	{"AST", RoleAway, ShotsOnTarget},
	{"HC", RoleHome, Corners},
	{"AC", RoleAway, Corners},
	{"HF", RoleHome, Fouls},
	{"AF", RoleAway, Fouls},
	{"HY", RoleHome, Yellows},
	{"AY", RoleAway, Yellows},
	{"HR", RoleHome, Reds},
	{"AR", RoleAway, Reds},
}

func init() {
	for i, f := range FeatureSchema {
		want := f.Kind.HomeColumn()
		if f.Role == RoleAway {
			want = f.Kind.AwayColumn()
		}
		if f.Name != want || f.Name != StatColumns[i] {
			panic(fmt.Sprintf("feature schema entry %d is %s, expected %s", i, f.Name, StatColumns[i]))
		}
	}
}

// FeatureNames returns the schema field names in order.
func FeatureNames() []string {
	names := make([]string, NumFeatures)
	for i, f := range FeatureSchema {
		names[i] = f.Name
	}
	return names
}

// ValidateSchema checks a model's declared feature names against FeatureSchema.
func ValidateSchema(names []string) error {
	if len(names) != NumFeatures {
		return fmt.Errorf("%w: model expects %d features, schema has %d", ErrFeatureOrder, len(names), NumFeatures)
	}
	for i, f := range FeatureSchema {
		if names[i] != f.Name {
			return fmt.Errorf("%w: position %d is %q in the model, %q in the schema", ErrFeatureOrder, i, names[i], f.Name)
		}
	}
	return nil
}

// PredictionInput is the classifier input for one fixture, in FeatureSchema order.
type PredictionInput struct {
	Home   string               `json:"home"`
	Away   string               `json:"away"`
	Values [NumFeatures]float64 `json:"values"`
}

func (p PredictionInput) Names() []string { return FeatureNames() }

// Vector returns a copy of the values as a slice.
func (p PredictionInput) Vector() []float64 {
	return append([]float64(nil), p.Values[:]...)
}

// Value looks a field up by schema name.
func (p PredictionInput) Value(name string) (float64, bool) {
	for i, f := range FeatureSchema {
		if f.Name == name {
			return p.Values[i], true
		}
	}
	return 0, false
}

// Assemble builds the classifier input for home v away from their aggregated vectors.
func Assemble(fs *FeatureSet, home, away string) (PredictionInput, error) {
	in := PredictionInput{Home: home, Away: away}

	homeVec, err := LookupTeam(fs, home)
	if err != nil {
		return in, err
	}
	awayVec, err := LookupTeam(fs, away)
	if err != nil {
		return in, err
	}
	if home == away {
		return in, fmt.Errorf("%w: %q", ErrSameTeam, home)
	}

	for i, f := range FeatureSchema {
		src := homeVec
		if f.Role == RoleAway {
			src = awayVec
		}
		in.Values[i] = src.Own(f.Kind)
	}
	return in, nil
}

// LookupTeam returns the team's vector or an UnknownTeamError with close matches.
func LookupTeam(fs *FeatureSet, team string) (*TeamFeatureVector, error) {
	if v, ok := fs.Get(team); ok {
		return v, nil
	}
	return nil, &UnknownTeamError{
		Team:        team,
		Suggestions: util.ClosestMatches(team, fs.Teams(), 0.5, 3),
	}
}

// RecordInput lays a single fixture's own statistics out in schema order.
// This is the per-match layout the classifier is trained on.
func RecordInput(m *MatchRecord) PredictionInput {
	in := PredictionInput{Home: m.HomeTeam, Away: m.AwayTeam}
	for i, f := range FeatureSchema {
		if f.Role == RoleHome {
			in.Values[i] = m.Home[f.Kind]
		} else {
			in.Values[i] = m.Away[f.Kind]
		}
	}
	return in
}
