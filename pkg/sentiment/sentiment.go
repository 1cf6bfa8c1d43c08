package sentiment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
)

// Label is the polarity class assigned to one text record.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Labels lists every label in display order.
var Labels = []Label{Positive, Neutral, Negative}

func ParseLabel(s string) (Label, error) {
	switch l := Label(strings.ToLower(strings.TrimSpace(s))); l {
	case Positive, Neutral, Negative:
		return l, nil
	}
	return "", fmt.Errorf("unknown sentiment label %q", s)
}

// Thresholds bound the neutral band of compound scores. Scores strictly
// above Positive are positive, strictly below Negative are negative.
type Thresholds struct {
	Positive float64
	Negative float64
}

// DefaultThresholds are the usual VADER cut-offs.
var DefaultThresholds = Thresholds{Positive: 0.05, Negative: -0.05}

func (t Thresholds) Classify(compound float64) Label {
	switch {
	case compound > t.Positive:
		return Positive
	case compound < t.Negative:
		return Negative
	default:
		return Neutral
	}
}

// PolarityScorer returns a compound polarity score in [-1, 1].
type PolarityScorer interface {
	Compound(text string) float64
}

// VaderScorer scores text with the VADER lexicon.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) Compound(text string) float64 {
	return v.analyzer.PolarityScores(text).Compound
}

var (
	linksAndTags = regexp.MustCompile(`http\S+|www\S+|@\S+|#\S+`)
	punctuation  = regexp.MustCompile(`[^\w\s]`)
)

// CleanText removes links, mentions, hashtags and punctuation, then lower-cases.
func CleanText(text string) string {
	text = linksAndTags.ReplaceAllString(text, "")
	text = punctuation.ReplaceAllString(text, "")
	return strings.ToLower(text)
}

// Labeler cleans and classifies free text.
type Labeler struct {
	scorer     PolarityScorer
	thresholds Thresholds
}

func NewLabeler(scorer PolarityScorer, t Thresholds) *Labeler {
	return &Labeler{scorer: scorer, thresholds: t}
}

// Label returns the label and the compound score of the cleaned text.
func (l *Labeler) Label(text string) (Label, float64) {
	score := l.scorer.Compound(CleanText(text))
	return l.thresholds.Classify(score), score
}
