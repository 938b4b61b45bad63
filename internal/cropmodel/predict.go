package cropmodel

import (
	"fmt"
	"sort"
	"time"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/errors"
)

// maxRankedResults caps the ranked alternatives returned alongside the
// winning crop.
const maxRankedResults = 5

// Result pairs a crop label with its averaged forest score.
type Result struct {
	Crop  string  `json:"crop"`
	Score float64 `json:"score"`
}

// CropPrediction is the Stage-1 output: the recommended crop with its
// score and the runner-up alternatives. Immutable once produced,
// request-scoped.
type CropPrediction struct {
	Crop       string        `json:"crop"`
	Score      float64       `json:"score"`
	Ranked     []Result      `json:"ranked"`
	InferredIn time.Duration `json:"-"`
}

// Predict performs Stage-1 inference: the observation's fixed-order
// feature vector goes through the forest and the winning class index is
// decoded back to a crop name through the label encoder.
func (cm *CropModel) Predict(obs *agronomy.FarmObservation) (*CropPrediction, error) {
	if !cm.Stage1Available() {
		return nil, cm.stage1Err
	}

	start := time.Now()

	// Feature order [N, P, K, temperature, humidity, ph, rainfall] is the
	// order the classifier was trained on.
	features := obs.FeatureVector()

	classIndex, scores, err := cm.classifier.Predict(features)
	if err != nil {
		return nil, errors.New(fmt.Errorf("crop classification failed: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryPrediction).
			Context("stage", "classifier").
			Build()
	}

	crop, err := cm.encoder.Decode(classIndex)
	if err != nil {
		return nil, errors.New(fmt.Errorf("decoding predicted class: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryPrediction).
			Context("stage", "classifier").
			Context("class_index", classIndex).
			Build()
	}

	ranked, err := pairLabelsAndScores(cm.encoder.Classes, scores)
	if err != nil {
		return nil, errors.New(err).
			Component("cropmodel").
			Category(errors.CategoryPrediction).
			Context("stage", "classifier").
			Build()
	}
	sortResults(ranked)

	return &CropPrediction{
		Crop:       crop,
		Score:      scores[classIndex],
		Ranked:     trimResultsToMax(ranked, maxRankedResults),
		InferredIn: time.Since(start),
	}, nil
}

// pairLabelsAndScores pairs labels with their corresponding score values.
func pairLabelsAndScores(labels []string, scores []float64) ([]Result, error) {
	if len(labels) != len(scores) {
		return nil, fmt.Errorf("mismatched labels and scores lengths: %d vs %d", len(labels), len(scores))
	}

	results := make([]Result, 0, len(labels))
	for i, label := range labels {
		results = append(results, Result{Crop: label, Score: scores[i]})
	}
	return results, nil
}

// sortResults sorts a slice of Result by score in descending order.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// trimResultsToMax trims the results to a maximum specified count.
func trimResultsToMax(results []Result, maxCount int) []Result {
	if len(results) > maxCount {
		return results[:maxCount]
	}
	return results
}
