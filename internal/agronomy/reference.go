package agronomy

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/cropinsight/cropinsight-go/internal/errors"
)

// BaselineKind selects which statistic the match calculator compares
// against.
type BaselineKind string

const (
	BaselineMean BaselineKind = "mean"
	BaselineMode BaselineKind = "mode"
)

// CropBaseline holds per-crop reference statistics for every base feature,
// in canonical feature order.
type CropBaseline struct {
	Crop    string
	Mean    []float64
	Mode    []float64
	Samples int
}

// ReferenceSet is the per-crop baseline table computed from the historical
// observations CSV. Built once at load, read-only afterwards.
type ReferenceSet struct {
	baselines map[string]*CropBaseline
}

// Values returns the baseline vector of the requested kind for a crop.
// Lookup is case-insensitive. ok is false when the crop has no baseline.
func (r *ReferenceSet) Values(crop string, kind BaselineKind) (values []float64, ok bool) {
	if r == nil {
		return nil, false
	}
	b, ok := r.baselines[strings.ToLower(crop)]
	if !ok {
		return nil, false
	}
	if kind == BaselineMode {
		return b.Mode, true
	}
	return b.Mean, true
}

// Crops lists the crops with a computed baseline.
func (r *ReferenceSet) Crops() []string {
	if r == nil {
		return nil
	}
	crops := make([]string, 0, len(r.baselines))
	for _, b := range r.baselines {
		crops = append(crops, b.Crop)
	}
	return crops
}

// SampleCount returns the number of reference rows for a crop.
func (r *ReferenceSet) SampleCount(crop string) int {
	if r == nil {
		return 0
	}
	if b, ok := r.baselines[strings.ToLower(crop)]; ok {
		return b.Samples
	}
	return 0
}

// referenceColumns maps canonical feature names to the column aliases seen
// in reference datasets. Header matching is case-insensitive.
var referenceColumns = map[string][]string{
	"N":           {"n", "nitrogen"},
	"P":           {"p", "phosphorus"},
	"K":           {"k", "potassium"},
	"temperature": {"temperature", "temp"},
	"humidity":    {"humidity"},
	"ph":          {"ph", "soil_ph"},
	"rainfall":    {"rainfall"},
}

var labelColumns = []string{"label", "crop", "crop_label"}

// LoadReferenceSet reads the historical observations CSV and computes the
// per-crop baselines. The file is optional upstream: callers treat a load
// failure as "reference features unavailable", not as fatal.
func LoadReferenceSet(path string) (*ReferenceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("agronomy").
			Category(errors.CategoryReference).
			FileContext(path, 0).
			Build()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Newf("reading reference dataset header: %w", err).
			Component("agronomy").
			Category(errors.CategoryFileParsing).
			Build()
	}

	featureIdx, labelIdx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	// Collect per-crop feature columns before computing statistics.
	samples := make(map[string][][]float64)
	names := FeatureNames()

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Newf("reading reference dataset rows: %w", err).
			Component("agronomy").
			Category(errors.CategoryFileParsing).
			Build()
	}

	for _, row := range rows {
		crop := strings.ToLower(strings.TrimSpace(row[labelIdx]))
		if crop == "" {
			continue
		}
		cols, ok := samples[crop]
		if !ok {
			cols = make([][]float64, len(names))
			samples[crop] = cols
		}
		for i, idx := range featureIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
			if err != nil {
				// Skip unparseable cells rather than discarding the dataset.
				continue
			}
			cols[i] = append(cols[i], v)
		}
	}

	set := &ReferenceSet{baselines: make(map[string]*CropBaseline, len(samples))}
	for crop, cols := range samples {
		baseline := &CropBaseline{
			Crop: crop,
			Mean: make([]float64, len(names)),
			Mode: make([]float64, len(names)),
		}
		for i, col := range cols {
			if len(col) == 0 {
				continue
			}
			baseline.Samples = len(col)
			mean, err := stats.Mean(col)
			if err != nil {
				continue
			}
			baseline.Mean[i] = mean
			baseline.Mode[i] = columnMode(col, mean)
		}
		set.baselines[crop] = baseline
	}

	return set, nil
}

// columnMode returns the most frequent value in a column, falling back to
// the mean when the column has no repeated value (stats.Mode returns an
// empty slice for uniform frequency).
func columnMode(col []float64, fallback float64) float64 {
	modes, err := stats.Mode(col)
	if err != nil || len(modes) == 0 {
		return fallback
	}
	return modes[0]
}

// resolveColumns finds each canonical feature column and the crop label
// column in the CSV header.
func resolveColumns(header []string) (featureIdx []int, labelIdx int, err error) {
	lower := make(map[string]int, len(header))
	for i, h := range header {
		lower[strings.ToLower(strings.TrimSpace(h))] = i
	}

	names := FeatureNames()
	featureIdx = make([]int, len(names))
	for i, name := range names {
		found := false
		for _, alias := range referenceColumns[name] {
			if idx, ok := lower[alias]; ok {
				featureIdx[i] = idx
				found = true
				break
			}
		}
		if !found {
			return nil, 0, errors.New(fmt.Errorf("reference dataset is missing a %q column", name)).
				Component("agronomy").
				Category(errors.CategoryFileParsing).
				Build()
		}
	}

	for _, alias := range labelColumns {
		if idx, ok := lower[alias]; ok {
			return featureIdx, idx, nil
		}
	}

	return nil, 0, errors.New(fmt.Errorf("reference dataset is missing a crop label column")).
		Component("agronomy").
		Category(errors.CategoryFileParsing).
		Build()
}
