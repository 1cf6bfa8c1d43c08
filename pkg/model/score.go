package model

import (
	"fmt"
	"sort"

	"github.com/richard-senior/matchpredict/pkg/predictor"
)

// FeatureWeight is one feature's importance in the trained model.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Value      float64 `json:"value"`
}

type OutcomeProbability struct {
	Outcome     Outcome `json:"-"`
	Key         string  `json:"outcome"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Prediction is a scored fixture.
type Prediction struct {
	Outcome       Outcome              `json:"-"`
	Key           string               `json:"outcome"`
	Label         string               `json:"label"`
	Confidence    float64              `json:"confidence"`
	Probabilities []OutcomeProbability `json:"probabilities"`
	TopFeatures   []FeatureWeight      `json:"topFeatures"`
}

// CheckSchema fails when the classifier was trained on a different feature
// layout from the one the assembler produces.
func CheckSchema(c Classifier) error {
	return predictor.ValidateSchema(c.FeatureNames())
}

// Score runs the classifier on an assembled input and ranks the topN most
// important features.
func Score(c Classifier, in predictor.PredictionInput, topN int) (*Prediction, error) {
	x := in.Vector()
	proba, err := c.PredictProba(x)
	if err != nil {
		return nil, err
	}
	outcome, err := c.Predict(x)
	if err != nil {
		return nil, err
	}

	classes := c.Classes()
	if len(proba) != len(classes) {
		return nil, fmt.Errorf("classifier returned %d probabilities for %d classes", len(proba), len(classes))
	}

	p := &Prediction{
		Outcome: outcome,
		Key:     outcome.Key(),
		Label:   outcome.Label(),
	}
	for i, cls := range classes {
		p.Probabilities = append(p.Probabilities, OutcomeProbability{
			Outcome:     cls,
			Key:         cls.Key(),
			Label:       cls.Label(),
			Probability: proba[i],
		})
		if proba[i] > p.Confidence {
			p.Confidence = proba[i]
		}
	}
	p.TopFeatures = TopFeatures(c, x, topN)
	return p, nil
}

// Probability returns the probability assigned to o, or 0 if the model lacks that class.
func (p *Prediction) Probability(o Outcome) float64 {
	for _, op := range p.Probabilities {
		if op.Outcome == o {
			return op.Probability
		}
	}
	return 0
}

// TopFeatures ranks features by importance, keeping schema order on ties.
func TopFeatures(c Classifier, x []float64, n int) []FeatureWeight {
	names := c.FeatureNames()
	imp := c.FeatureImportances()

	weights := make([]FeatureWeight, len(names))
	for i, name := range names {
		weights[i] = FeatureWeight{Feature: name, Importance: imp[i]}
		if i < len(x) {
			weights[i].Value = x[i]
		}
	}
	sort.SliceStable(weights, func(i, j int) bool {
		return weights[i].Importance > weights[j].Importance
	})
	if n >= 0 && n < len(weights) {
		weights = weights[:n]
	}
	return weights
}
