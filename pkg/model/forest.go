package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/richard-senior/matchpredict/internal/logger"
)

// Classifier scores a feature vector laid out in FeatureNames order.
type Classifier interface {
	FeatureNames() []string
	Classes() []Outcome
	Predict(x []float64) (Outcome, error)
	// PredictProba returns one probability per entry of Classes.
	PredictProba(x []float64) ([]float64, error)
	FeatureImportances() []float64
}

// ErrBadInput is returned when a vector has the wrong length or holds NaN.
var ErrBadInput = errors.New("invalid classifier input")

const leafChild = -1

// Node is one decision tree node. Internal nodes send x to Left when
// x[Feature] <= Threshold. Leaves have Left and Right set to -1 and carry the
// per-class training weight in Value.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.Left == leafChild && n.Right == leafChild }

// Tree is one decision tree. Node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a random forest exported from the offline training job.
// Probabilities are the mean of each tree's normalised leaf distribution.
type Forest struct {
	ModelType   string    `json:"model_type"`
	Names       []string  `json:"feature_names"`
	ClassList   []Outcome `json:"classes"`
	Importances []float64 `json:"feature_importances"`
	Trees       []Tree    `json:"trees"`
}

// LoadForest reads and validates a forest artifact.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	f, err := ParseForest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("Loaded model", path, len(f.Trees), "trees", len(f.Names), "features")
	return f, nil
}

// ParseForest decodes a forest artifact and validates it.
func ParseForest(data []byte) (*Forest, error) {
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the artifact is internally consistent.
func (f *Forest) Validate() error {
	nf := len(f.Names)
	if nf == 0 {
		return errors.New("model declares no features")
	}
	if len(f.Importances) != nf {
		return fmt.Errorf("model has %d importances for %d features", len(f.Importances), nf)
	}
	if len(f.ClassList) == 0 {
		return errors.New("model declares no classes")
	}
	seen := map[Outcome]bool{}
	for _, c := range f.ClassList {
		if !c.Valid() || seen[c] {
			return fmt.Errorf("model class list %v is invalid", f.ClassList)
		}
		seen[c] = true
	}
	if len(f.Trees) == 0 {
		return errors.New("model has no trees")
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf() {
				if len(n.Value) != len(f.ClassList) {
					return fmt.Errorf("tree %d leaf %d has %d values for %d classes", ti, ni, len(n.Value), len(f.ClassList))
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= nf {
				return fmt.Errorf("tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			// children always follow their parent, which also rules out cycles
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has children %d/%d out of range", ti, ni, n.Left, n.Right)
			}
		}
	}
	return nil
}

// FeatureNames returns a copy of the input names in the order the model expects.
func (f *Forest) FeatureNames() []string { return append([]string(nil), f.Names...) }

// Classes returns a copy of the outcome order used by PredictProba.
func (f *Forest) Classes() []Outcome { return append([]Outcome(nil), f.ClassList...) }

// FeatureImportances returns a copy of the per-feature importances.
func (f *Forest) FeatureImportances() []float64 { return append([]float64(nil), f.Importances...) }

func (f *Forest) checkInput(x []float64) error {
	if len(x) != len(f.Names) {
		return fmt.Errorf("%w: got %d values, model expects %d", ErrBadInput, len(x), len(f.Names))
	}
	for i, v := range x {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: %s is NaN", ErrBadInput, f.Names[i])
		}
	}
	return nil
}

// PredictProba returns one probability per class, in Classes order. It
// fails with ErrBadInput when x has the wrong length or holds a NaN.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if err := f.checkInput(x); err != nil {
		return nil, err
	}
	proba := make([]float64, len(f.ClassList))
	for i := range f.Trees {
		leaf := f.Trees[i].leaf(x)
		total := 0.0
		for _, v := range leaf.Value {
			total += v
		}
		if total == 0 {
			continue
		}
		for c, v := range leaf.Value {
			proba[c] += v / total
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba, nil
}

// Predict returns the most probable class; ties go to the earlier class.
func (f *Forest) Predict(x []float64) (Outcome, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := range proba {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.ClassList[best], nil
}

func (t *Tree) leaf(x []float64) *Node {
	n := &t.Nodes[0]
	for !n.IsLeaf() {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n
}
