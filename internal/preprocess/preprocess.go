// Package preprocess turns raw uploaded tabular content into structured
// trial metadata. Parsing is strict: content that cannot be interpreted
// as participant data fails with a ParseError instead of falling back to
// synthetic values.
package preprocess

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/stats"
)

const (
	// Completeness-derived eligibility stays inside this band so a
	// sparse but parseable upload is penalized, not zeroed.
	minCompletenessScore = 0.6
	maxCompletenessScore = 1.0

	trialIDHexLen = 16
)

// CSVPreprocessor parses comma-separated participant files.
type CSVPreprocessor struct{}

// NewCSVPreprocessor returns a Preprocessor for CSV uploads.
func NewCSVPreprocessor() *CSVPreprocessor {
	return &CSVPreprocessor{}
}

var _ domain.Preprocessor = (*CSVPreprocessor)(nil)

// Preprocess parses content into TrialMetadata. The filename feeds the
// trial identifier only; column semantics come from the header row.
func (p *CSVPreprocessor) Preprocess(content []byte, filename string) (*domain.TrialMetadata, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, domain.NewParseError(filename, "empty content")
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.NewParseError(filename, err.Error())
	}
	if len(records) < 2 {
		return nil, domain.NewParseError(filename, "no data rows below the header")
	}

	header := records[0]
	rows := records[1:]
	cols := detectColumns(header)
	if cols.age < 0 && cols.gender < 0 && cols.ethnicity < 0 {
		return nil, domain.NewParseError(filename,
			"no age, gender, or ethnicity column recognized in header")
	}

	hash := sha256.Sum256(content)
	hashHex := hex.EncodeToString(hash[:])

	meta := &domain.TrialMetadata{
		TrialID:               deriveTrialID(filename, hashHex),
		Filename:              filename,
		ParticipantCount:      len(rows),
		SampleSize:            len(rows),
		AgeDistribution:       ageDistribution(rows, cols.age),
		GenderDistribution:    genderDistribution(rows, cols.gender),
		EthnicityDistribution: ethnicityDistribution(rows, cols.ethnicity),
		EligibilityScore:      eligibilityScore(rows, cols.eligibility),
		RawDataHash:           hashHex,
	}
	if err := meta.Validate(); err != nil {
		return nil, domain.NewParseError(filename, err.Error())
	}
	return meta, nil
}

type columnIndexes struct {
	age         int
	gender      int
	ethnicity   int
	eligibility int
}

func detectColumns(header []string) columnIndexes {
	cols := columnIndexes{age: -1, gender: -1, ethnicity: -1, eligibility: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.eligibility < 0 && strings.Contains(name, "eligibility"):
			cols.eligibility = i
		case cols.age < 0 && strings.Contains(name, "age"):
			cols.age = i
		case cols.gender < 0 && (strings.Contains(name, "gender") || strings.Contains(name, "sex")):
			cols.gender = i
		case cols.ethnicity < 0 && (strings.Contains(name, "ethnic") || strings.Contains(name, "race")):
			cols.ethnicity = i
		}
	}
	return cols
}

// deriveTrialID is the stable short identifier for an upload: the first
// 16 hex characters of the content hash, unique per distinct content.
func deriveTrialID(filename, hashHex string) string {
	if len(hashHex) < trialIDHexLen {
		return fmt.Sprintf("%s-%s", filename, hashHex)
	}
	return hashHex[:trialIDHexLen]
}

func ageDistribution(rows [][]string, col int) domain.AgeDistribution {
	if col < 0 {
		return domain.AgeDistribution{}
	}
	var ages []float64
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			continue
		}
		ages = append(ages, v)
	}
	if len(ages) == 0 {
		return domain.AgeDistribution{}
	}
	min, max := stats.MinMax(ages)
	return domain.AgeDistribution{
		Mean: stats.Mean(ages),
		Std:  stats.Std(ages),
		Min:  min,
		Max:  max,
	}
}

func genderDistribution(rows [][]string, col int) domain.GenderDistribution {
	if col < 0 {
		return domain.GenderDistribution{}
	}
	var male, female int
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(row[col])) {
		case "male", "m":
			male++
		case "female", "f":
			female++
		}
	}
	total := float64(len(rows))
	if total == 0 {
		return domain.GenderDistribution{}
	}
	// Unrecognized cells contribute zero to both fractions so repeated
	// runs over the same bytes stay deterministic.
	return domain.GenderDistribution{
		Male:   float64(male) / total,
		Female: float64(female) / total,
	}
}

// canonicalEthnicity folds common synonyms into stable category names.
func canonicalEthnicity(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "caucasian", "european":
		return "white"
	case "african american", "african-american", "african":
		return "black"
	case "hispanic or latino", "latino", "latina":
		return "hispanic"
	case "":
		return ""
	default:
		return name
	}
}

func ethnicityDistribution(rows [][]string, col int) map[string]float64 {
	dist := make(map[string]float64)
	if col < 0 || len(rows) == 0 {
		return dist
	}
	counts := make(map[string]int)
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		name := canonicalEthnicity(row[col])
		if name == "" {
			continue
		}
		counts[name]++
	}
	total := float64(len(rows))
	for name, n := range counts {
		dist[name] = float64(n) / total
	}
	return dist
}

// eligibilityScore averages an explicit eligibility column when one
// exists; otherwise it falls back to a data-completeness heuristic,
// 1 minus the fraction of blank cells, clamped to [0.6, 1.0].
func eligibilityScore(rows [][]string, col int) float64 {
	if col >= 0 {
		var scores []float64
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				continue
			}
			scores = append(scores, v)
		}
		if len(scores) > 0 {
			return stats.Clamp(stats.Mean(scores), 0, 1)
		}
	}

	var cells, missing int
	for _, row := range rows {
		for _, cell := range row {
			cells++
			if strings.TrimSpace(cell) == "" {
				missing++
			}
		}
	}
	if cells == 0 {
		return minCompletenessScore
	}
	completeness := 1 - float64(missing)/float64(cells)
	return stats.Clamp(completeness, minCompletenessScore, maxCompletenessScore)
}
