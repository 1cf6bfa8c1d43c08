package predictor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// TrainingLabelColumn is the label column written by WriteTrainingCSV.
const TrainingLabelColumn = "match_result"

// WriteTrainingCSV writes one row per fixture with the twelve statistics in
// FeatureSchema order followed by the encoded result (H=1, D=0, A=-1). This is
// the table the offline classifier is trained on.
func WriteTrainingCSV(w io.Writer, records []*MatchRecord) error {
	cw := csv.NewWriter(w)
	header := append(FeatureNames(), TrainingLabelColumn)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write training header: %w", err)
	}

	row := make([]string, len(header))
	for _, m := range records {
		for i, v := range RecordInput(m).Values {
			row[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		row[NumFeatures] = strconv.Itoa(m.Result.Encode())
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write training row for %s: %w", m, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
