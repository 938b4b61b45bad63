// Package testutil provides shared model artifact fixtures for tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// FixtureCrops is the 22-crop vocabulary in trained encoder order
// (lexicographic, matching how the label encoding was fit).
var FixtureCrops = []string{
	"apple", "banana", "blackgram", "chickpea", "coconut",
	"coffee", "cotton", "grapes", "jute", "kidneybeans",
	"lentil", "maize", "mango", "mothbeans", "mungbean",
	"muskmelon", "orange", "papaya", "pigeonpeas", "pomegranate",
	"rice", "watermelon",
}

// Class indices of the crops the fixture classifier can predict.
const (
	FixtureClassCotton = 6
	FixtureClassMaize  = 11
	FixtureClassRice   = 20
	FixtureClassBanana = 1
)

// oneHot builds a 22-class vote vector with all mass on the given class.
func oneHot(class int) []float64 {
	votes := make([]float64, len(FixtureCrops))
	votes[class] = 1
	return votes
}

// node is the serialized tree node shape shared by both artifact kinds.
type node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// classifierTree routes on rainfall (feature 6) and humidity (feature 4):
// heavy rainfall predicts rice, otherwise humid conditions predict maize
// and dry ones cotton.
func classifierTree() tree {
	return tree{Nodes: []node{
		{Feature: 6, Threshold: 150, Left: 1, Right: 4},
		{Feature: 4, Threshold: 65, Left: 2, Right: 3},
		{Feature: -1, Left: -1, Right: -1, Value: oneHot(FixtureClassCotton)},
		{Feature: -1, Left: -1, Right: -1, Value: oneHot(FixtureClassMaize)},
		{Feature: -1, Left: -1, Right: -1, Value: oneHot(FixtureClassRice)},
	}}
}

// bananaTree votes banana when temperature (feature 3) is tropical and
// humidity high, so fixtures can exercise the unsupported-crop path.
func bananaTree() tree {
	return tree{Nodes: []node{
		{Feature: 3, Threshold: 26, Left: 1, Right: 2},
		{Feature: -1, Left: -1, Right: -1, Value: oneHot(FixtureClassRice)},
		{Feature: 4, Threshold: 75, Left: 3, Right: 4},
		{Feature: -1, Left: -1, Right: -1, Value: oneHot(FixtureClassCotton)},
		{Feature: -1, Left: -1, Right: -1, Value: oneHot(FixtureClassBanana)},
	}}
}

// WriteClassifier writes the fixture classifier artifact and returns its
// path.
func WriteClassifier(t *testing.T, dir string) string {
	t.Helper()
	artifact := map[string]any{
		"model_type": "random_forest_classifier",
		"n_classes":  len(FixtureCrops),
		"n_features": 7,
		"trees":      []tree{classifierTree(), classifierTree(), bananaTree()},
	}
	return writeJSON(t, dir, "classifier.json", artifact)
}

// WriteLabels writes the fixture label encoder artifact and returns its
// path.
func WriteLabels(t *testing.T, dir string) string {
	t.Helper()
	return writeJSON(t, dir, "labels.json", map[string]any{"classes": FixtureCrops})
}

// RegressorFeatures is the column order the fixture regressor declares,
// deliberately using the artifact-side spellings rather than the canonical
// ones to exercise the schema adapter.
var RegressorFeatures = []string{
	"Nitrogen", "Phosphorus", "Potassium", "Temperature", "Humidity",
	"Soil_pH", "Rainfall", "Crop", "Soil_Moisture", "Sunlight_Hours",
	"Fertilizer_Used", "Pesticide_Used", "Soil_Type", "Irrigation_Type",
}

// Fixture regressor constants used by test expectations.
const (
	RegressorBaseScore  = 3.0
	RegressorRiceBonus  = 1.2
	RegressorOtherBonus = 0.5
	RegressorLowFert    = -0.4
	RegressorHighFert   = 0.3
)

// WriteRegressor writes the fixture yield regressor artifact and returns
// its path. Prediction = base + (rice ? 1.2 : 0.5) + (fertilizer > 100 ?
// 0.3 : -0.4).
func WriteRegressor(t *testing.T, dir string) string {
	t.Helper()

	cropTree := tree{Nodes: []node{
		// Crop is feature 7; rice encodes to 2 in the category table below.
		{Feature: 7, Threshold: 1.5, Left: 1, Right: 2},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{RegressorOtherBonus}},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{RegressorRiceBonus}},
	}}
	fertTree := tree{Nodes: []node{
		{Feature: 10, Threshold: 100, Left: 1, Right: 2},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{RegressorLowFert}},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{RegressorHighFert}},
	}}

	artifact := map[string]any{
		"model_type":    "gradient_boosted_regressor",
		"base_score":    RegressorBaseScore,
		"feature_names": RegressorFeatures,
		"categories": map[string][]string{
			"Crop":            {"cotton", "maize", "rice"},
			"Soil_Type":       {"Clay", "Loamy", "Sandy", "Silty"},
			"Irrigation_Type": {"Drip", "Flood", "Rainfed", "Sprinkler"},
		},
		"trees": []tree{cropTree, fertTree},
	}
	return writeJSON(t, dir, "regressor.json", artifact)
}

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling fixture %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}
