package model

import (
	"fmt"
	"strings"

	"github.com/richard-senior/matchpredict/pkg/predictor"
)

// ClassMetrics holds per-outcome precision and recall.
type ClassMetrics struct {
	Outcome   Outcome `json:"-"`
	Label     string  `json:"label"`
	Support   int     `json:"support"`
	Predicted int     `json:"predicted"`
	Correct   int     `json:"correct"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Evaluation summarises how the classifier does on historical fixtures.
type Evaluation struct {
	Total    int             `json:"total"`
	Correct  int             `json:"correct"`
	Accuracy float64         `json:"accuracy"`
	Classes  []*ClassMetrics `json:"classes"`
}

// Evaluate scores every record using the fixture's own statistics, which is
// the layout the classifier was trained on, and compares against the result.
func Evaluate(c Classifier, records []*predictor.MatchRecord) (*Evaluation, error) {
	ev := &Evaluation{}
	byClass := make(map[Outcome]*ClassMetrics)
	for _, cls := range c.Classes() {
		m := &ClassMetrics{Outcome: cls, Label: cls.Label()}
		byClass[cls] = m
		ev.Classes = append(ev.Classes, m)
	}

	for _, r := range records {
		in := predictor.RecordInput(r)
		got, err := c.Predict(in.Vector())
		if err != nil {
			return nil, fmt.Errorf("scoring %s: %w", r, err)
		}
		want := OutcomeOf(r.Result)

		ev.Total++
		if m, ok := byClass[want]; ok {
			m.Support++
		}
		if m, ok := byClass[got]; ok {
			m.Predicted++
		}
		if got == want {
			ev.Correct++
			byClass[got].Correct++
		}
	}

	if ev.Total > 0 {
		ev.Accuracy = float64(ev.Correct) / float64(ev.Total)
	}
	for _, m := range ev.Classes {
		if m.Predicted > 0 {
			m.Precision = float64(m.Correct) / float64(m.Predicted)
		}
		if m.Support > 0 {
			m.Recall = float64(m.Correct) / float64(m.Support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
	}
	return ev, nil
}

// String renders a plain text report.
func (e *Evaluation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %9s %9s %9s %8s\n", "", "precision", "recall", "f1", "support")
	for _, m := range e.Classes {
		fmt.Fprintf(&b, "%-10s %9.2f %9.2f %9.2f %8d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "\naccuracy %.3f (%d/%d)\n", e.Accuracy, e.Correct, e.Total)
	return b.String()
}
