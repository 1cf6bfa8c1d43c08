package predictor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureNamesOrder(t *testing.T) {
	assert.Equal(t, []string{"HS", "AS", "HST", "AST", "HC", "AC", "HF", "AF", "HY", "AY", "HR", "AR"}, FeatureNames())
}

func TestAssembleUsesEachTeamsOwnAverages(t *testing.T) {
	fs := Aggregate(twoMatchCorpus())

	in, err := Assemble(fs, "Arsenal", "Chelsea")
	require.NoError(t, err)

	arsenal, _ := fs.Get("Arsenal")
	chelsea, _ := fs.Get("Chelsea")
	for i, f := range FeatureSchema {
		want := arsenal.Own(f.Kind)
		if f.Role == RoleAway {
			want = chelsea.Own(f.Kind)
		}
		assert.Equal(t, want, in.Values[i], f.Name)
	}

	hs, _ := in.Value("HS")
	as, _ := in.Value("AS")
	assert.Equal(t, 13.5, hs)
	assert.Equal(t, 9.0, as)
	// AS is what Chelsea shoot, not the 13.5 shots a game they concede
	assert.Equal(t, 13.5, chelsea.Opponent(Shots))
	assert.Equal(t, "Arsenal", in.Home)
	assert.Equal(t, "Chelsea", in.Away)
}

func TestAssembleIsDeterministic(t *testing.T) {
	fs := Aggregate(twoMatchCorpus())
	a, err := Assemble(fs, "Chelsea", "Arsenal")
	require.NoError(t, err)
	b, err := Assemble(fs, "Chelsea", "Arsenal")
	require.NoError(t, err)
	assert.Equal(t, a.Values, b.Values)
	assert.Equal(t, a.Vector(), b.Vector())
}

func TestAssembleUnknownTeam(t *testing.T) {
	fs := Aggregate(twoMatchCorpus())

	cases := []struct {
		home, away string
		unknown    bool
	}{
		{"Arsenal", "Chelsea", false},
		{"Chelsea", "Arsenal", false},
		{"Arsenal", "Luton", true},
		{"Luton", "Chelsea", true},
		{"Luton", "Burnley", true},
	}
	for _, c := range cases {
		_, err := Assemble(fs, c.home, c.away)
		assert.Equal(t, c.unknown, errors.Is(err, ErrUnknownTeam), "%s v %s", c.home, c.away)
	}
}

func TestUnknownTeamSuggestions(t *testing.T) {
	fs := Aggregate(twoMatchCorpus())
	_, err := Assemble(fs, "Arsenal", "Chelsae")

	var ute *UnknownTeamError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "Chelsae", ute.Team)
	assert.Contains(t, ute.Suggestions, "Chelsea")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestAssembleRejectsSameTeam(t *testing.T) {
	fs := Aggregate(twoMatchCorpus())
	_, err := Assemble(fs, "Arsenal", "Arsenal")
	assert.ErrorIs(t, err, ErrSameTeam)
}

func TestValidateSchema(t *testing.T) {
	require.NoError(t, ValidateSchema(FeatureNames()))

	swapped := FeatureNames()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.ErrorIs(t, ValidateSchema(swapped), ErrFeatureOrder)

	assert.ErrorIs(t, ValidateSchema(FeatureNames()[:11]), ErrFeatureOrder)
}
