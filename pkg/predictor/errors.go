package predictor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataUnavailable is returned when no match files can be found or read.
	ErrDataUnavailable = errors.New("match data unavailable")
	// ErrSchemaMismatch is returned when a match file lacks a required column.
	ErrSchemaMismatch = errors.New("match file schema mismatch")
	// ErrUnknownTeam is returned when a requested team has no aggregated vector.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrSameTeam is returned when the home and away selections are identical.
	ErrSameTeam = errors.New("home and away teams must differ")
	// ErrFeatureOrder is returned when a model's feature names disagree with FeatureSchema.
	ErrFeatureOrder = errors.New("feature order mismatch")
)

// SchemaError names the file and the required columns it is missing.
type SchemaError struct {
	File    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s is missing required columns: %s", ErrSchemaMismatch, e.File, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// UnknownTeamError carries the rejected name and any close matches.
type UnknownTeamError struct {
	Team        string
	Suggestions []string
}

func (e *UnknownTeamError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("%s: %q", ErrUnknownTeam, e.Team)
	}
	return fmt.Sprintf("%s: %q (did you mean %s?)", ErrUnknownTeam, e.Team, strings.Join(e.Suggestions, ", "))
}

func (e *UnknownTeamError) Unwrap() error { return ErrUnknownTeam }
