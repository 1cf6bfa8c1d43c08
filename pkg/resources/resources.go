package resources

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/richard-senior/matchpredict/pkg/app"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/protocol"
)

const (
	TableURI     = "matchpredict://table"
	CorpusURI    = "matchpredict://corpus"
	ModelURI     = "matchpredict://model"
	SentimentURI = "matchpredict://sentiment"
)

// Registrar is satisfied by *server.Server.
type Registrar interface {
	RegisterResource(resource protocol.Resource, reader func() (string, error))
}

// Register exposes the loaded data as read-only resources.
func Register(r Registrar, a *app.App) {
	r.RegisterResource(protocol.Resource{
		URI:         TableURI,
		Name:        "League table",
		Description: "Every team's record over the loaded matches, ordered by points",
		MimeType:    "text/markdown",
	}, func() (string, error) { return Table(a), nil })

	r.RegisterResource(protocol.Resource{
		URI:         CorpusURI,
		Name:        "Match data",
		Description: "The season files the statistics were built from, with row counts and checksum",
		MimeType:    "application/json",
	}, func() (string, error) { return Corpus(a) })

	r.RegisterResource(protocol.Resource{
		URI:         ModelURI,
		Name:        "Prediction model",
		Description: "The model's feature order, outcome classes and feature importances",
		MimeType:    "application/json",
	}, func() (string, error) { return Model(a) })

	r.RegisterResource(protocol.Resource{
		URI:         SentimentURI,
		Name:        "Fan sentiment",
		Description: "Positive, neutral and negative record counts per team",
		MimeType:    "application/json",
	}, func() (string, error) { return marshal(a.Sentiment) })
}

func marshal(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode resource: %w", err)
	}
	return string(b), nil
}

// Table renders the standings as a Markdown table.
func Table(a *app.App) string {
	var b strings.Builder
	b.WriteString("| # | Team | P | W | D | L | Pts | Form |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for i, r := range predictor.Standings(a.Records) {
		fmt.Fprintf(&b, "| %d | %s | %d | %d | %d | %d | %d | %s |\n",
			i+1, r.Team, r.GamesPlayed, r.Wins(), r.Draws(), r.Losses(), r.Points, r.FormString())
	}
	return b.String()
}

func Corpus(a *app.App) (string, error) {
	return marshal(struct {
		*predictor.Corpus
		Teams    int       `json:"teams"`
		Matches  int       `json:"matches"`
		LoadedAt time.Time `json:"loadedAt"`
	}{
		Corpus:   a.Corpus,
		Teams:    a.Features.Len(),
		Matches:  len(a.Corpus.Matches),
		LoadedAt: a.LoadedAt,
	})
}

func Model(a *app.App) (string, error) {
	type feature struct {
		Name       string  `json:"name"`
		Importance float64 `json:"importance"`
	}
	names := a.Model.FeatureNames()
	weights := a.Model.FeatureImportances()
	features := make([]feature, len(names))
	for i, n := range names {
		features[i] = feature{Name: n, Importance: weights[i]}
	}
	var classes []string
	for _, c := range a.Model.Classes() {
		classes = append(classes, c.Key())
	}
	return marshal(map[string]any{
		"features": features,
		"classes":  classes,
	})
}
