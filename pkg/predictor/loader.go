package predictor

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/matchpredict/internal/logger"
)

// LoadStats counts what happened to the rows of one or more files.
type LoadStats struct {
	Files   int `json:"files"`
	Rows    int `json:"rows"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

func (s *LoadStats) add(o LoadStats) {
	s.Files += o.Files
	s.Rows += o.Rows
	s.Kept += o.Kept
	s.Dropped += o.Dropped
}

// Corpus is the concatenated, filtered match table plus a checksum of the
// files it was read from.
type Corpus struct {
	Files    []string       `json:"files"`
	Checksum string         `json:"checksum"`
	Matches  []*MatchRecord `json:"-"`
	Stats    LoadStats      `json:"stats"`
}

// LoadMatchFiles loads every file matching pattern.
func LoadMatchFiles(pattern string) (*Corpus, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrDataUnavailable, pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", ErrDataUnavailable, pattern)
	}
	return LoadMatches(paths)
}

// LoadMatches reads and concatenates the given season files. Every file must
// carry the required columns; rows with missing values are dropped.
func LoadMatches(paths []string) (*Corpus, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files supplied", ErrDataUnavailable)
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	corpus := &Corpus{Files: sorted}
	hash := sha256.New()

	for _, path := range sorted {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}
		fmt.Fprintf(hash, "%s\x00%d\x00", filepath.Base(path), len(data))
		hash.Write(data)

		records, stats, err := ParseMatchCSV(bytes.NewReader(data), path)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded", path, stats.Kept, "kept", stats.Dropped, "dropped")
		corpus.Matches = append(corpus.Matches, records...)
		corpus.Stats.add(stats)
	}
	corpus.Checksum = hex.EncodeToString(hash.Sum(nil))

	logger.Info("Loaded match corpus", corpus.Stats.Files, "files", corpus.Stats.Kept, "matches", corpus.Stats.Dropped, "rows dropped")
	return corpus, nil
}

// ParseMatchCSV parses one season file. source is used for error messages and
// recorded on each MatchRecord.
func ParseMatchCSV(r io.Reader, source string) ([]*MatchRecord, LoadStats, error) {
	stats := LoadStats{Files: 1}

	reader := csv.NewReader(r)
	// football-data.co.uk files are ragged: later seasons add odds columns
	// and some rows carry trailing commas.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, &SchemaError{File: source, Missing: RequiredColumns}
	}
	if err != nil {
		return nil, stats, fmt.Errorf("failed to parse CSV header in %s: %w", source, err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, stats, &SchemaError{File: source, Missing: missing}
	}

	var records []*MatchRecord
	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, stats, fmt.Errorf("failed to parse CSV in %s at line %d: %w", source, line, err)
		}
		if isBlankRow(fields) {
			continue
		}
		stats.Rows++

		rec, reason := parseRow(fields, index)
		if rec == nil {
			stats.Dropped++
			logger.Debug("Dropping row", source, line, reason)
			continue
		}
		rec.Source = source
		rec.Row = line
		records = append(records, rec)
		stats.Kept++
	}
	return records, stats, nil
}

func parseRow(fields []string, index map[string]int) (*MatchRecord, string) {
	get := func(col string) string {
		i := index[col]
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rec := &MatchRecord{
		HomeTeam: get("HomeTeam"),
		AwayTeam: get("AwayTeam"),
	}
	if rec.HomeTeam == "" || rec.AwayTeam == "" {
		return nil, "missing team name"
	}
	result, ok := ParseResult(get("FTR"))
	if !ok {
		return nil, "missing or invalid FTR"
	}
	rec.Result = result

	for k := StatKind(0); k < NumStatKinds; k++ {
		if rec.Home[k], ok = parseStat(get(k.HomeColumn())); !ok {
			return nil, "missing " + k.HomeColumn()
		}
		if rec.Away[k], ok = parseStat(get(k.AwayColumn())); !ok {
			return nil, "missing " + k.AwayColumn()
		}
	}

	if d, ok := index["Date"]; ok && d < len(fields) {
		rec.Date = parseDate(strings.TrimSpace(fields[d]))
	}
	return rec, ""
}

// parseStat treats empty, NA and non-numeric values as null.
func parseStat(value string) (float64, bool) {
	if valueIsBlank(value) {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func valueIsBlank(value string) bool {
	switch strings.ToUpper(value) {
	case "", "NA", "N/A", "NAN", "NULL":
		return true
	}
	return false
}

func isBlankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// parseDate accepts the DD/MM/YYYY and DD/MM/YY forms used across seasons.
// An unparsable date is left zero since it plays no part in aggregation.
func parseDate(value string) time.Time {
	for _, layout := range []string{"02/01/2006", "02/01/06"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
