// forest.go tree ensemble artifact format and evaluation
package cropmodel

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cropinsight/cropinsight-go/internal/errors"
)

// Artifact model type identifiers.
const (
	ModelTypeForestClassifier = "random_forest_classifier"
	ModelTypeGBTRegressor     = "gradient_boosted_regressor"
)

// TreeNode is one node of a serialized decision tree. Leaf nodes have
// Left == -1 and carry Value; internal nodes route on Feature <= Threshold.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

// IsLeaf reports whether the node terminates evaluation.
func (n *TreeNode) IsLeaf() bool {
	return n.Left < 0
}

// Tree is a single decision tree stored as a flat node array rooted at
// index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// eval walks the tree for one feature row and returns the leaf value
// vector. Classifier leaves hold class vote distributions, regressor
// leaves hold a single scalar.
func (t *Tree) eval(features []float64) ([]float64, error) {
	idx := 0
	// Bounded by node count to catch cyclic or corrupt trees.
	for range len(t.Nodes) {
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, fmt.Errorf("tree node index %d out of range", idx)
		}
		node := &t.Nodes[idx]
		if node.IsLeaf() {
			return node.Value, nil
		}
		if node.Feature < 0 || node.Feature >= len(features) {
			return nil, fmt.Errorf("tree references feature %d beyond row length %d", node.Feature, len(features))
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return nil, fmt.Errorf("tree walk did not reach a leaf")
}

// ForestClassifier is the deserialized Stage-1 classifier artifact: a
// random forest voting over a fixed-order numeric feature vector.
// Immutable after load; safe for concurrent use.
type ForestClassifier struct {
	ModelType string `json:"model_type"`
	NumClass  int    `json:"n_classes"`
	NumFeat   int    `json:"n_features"`
	Trees     []Tree `json:"trees"`
}

// Predict returns the winning class index and the averaged per-class vote
// distribution for one feature row.
func (f *ForestClassifier) Predict(features []float64) (classIndex int, scores []float64, err error) {
	if len(features) != f.NumFeat {
		return 0, nil, fmt.Errorf("feature row length %d does not match model input size %d", len(features), f.NumFeat)
	}

	scores = make([]float64, f.NumClass)
	for i := range f.Trees {
		votes, err := f.Trees[i].eval(features)
		if err != nil {
			return 0, nil, fmt.Errorf("tree %d: %w", i, err)
		}
		if len(votes) != f.NumClass {
			return 0, nil, fmt.Errorf("tree %d leaf has %d classes, model declares %d", i, len(votes), f.NumClass)
		}
		for c, v := range votes {
			scores[c] += v
		}
	}

	n := float64(len(f.Trees))
	best := 0
	for c := range scores {
		scores[c] /= n
		if scores[c] > scores[best] {
			best = c
		}
	}

	return best, scores, nil
}

// GBTRegressor is the deserialized Stage-2 regressor artifact: boosted
// regression trees summed onto a base score over a mixed numeric and
// ordinal-encoded categorical feature row. Immutable after load.
type GBTRegressor struct {
	ModelType    string              `json:"model_type"`
	BaseScore    float64             `json:"base_score"`
	FeatureNames []string            `json:"feature_names"`
	Categories   map[string][]string `json:"categories"`
	Trees        []Tree              `json:"trees"`
}

// Predict returns the continuous prediction for one feature row.
func (g *GBTRegressor) Predict(features []float64) (float64, error) {
	if len(features) != len(g.FeatureNames) {
		return 0, fmt.Errorf("feature row length %d does not match model input size %d", len(features), len(g.FeatureNames))
	}

	sum := g.BaseScore
	for i := range g.Trees {
		leaf, err := g.Trees[i].eval(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		if len(leaf) != 1 {
			return 0, fmt.Errorf("tree %d leaf holds %d values, expected scalar", i, len(leaf))
		}
		sum += leaf[0]
	}

	return sum, nil
}

// LoadForestClassifier reads and validates the classifier artifact.
func LoadForestClassifier(path string) (*ForestClassifier, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading classifier artifact: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryModelLoad).
			ModelContext(path, "classifier").
			Timing("classifier-load", time.Since(start)).
			Build()
	}

	var forest ForestClassifier
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, errors.New(fmt.Errorf("decoding classifier artifact: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryModelLoad).
			ModelContext(path, "classifier").
			FileContext(path, int64(len(data))).
			Build()
	}

	if forest.ModelType != ModelTypeForestClassifier {
		return nil, errors.New(fmt.Errorf("artifact model type %q is not a forest classifier", forest.ModelType)).
			Component("cropmodel").
			Category(errors.CategoryModelInit).
			ModelContext(path, "classifier").
			Build()
	}
	if len(forest.Trees) == 0 || forest.NumClass <= 0 || forest.NumFeat <= 0 {
		return nil, errors.New(fmt.Errorf("classifier artifact is empty or malformed")).
			Component("cropmodel").
			Category(errors.CategoryModelInit).
			ModelContext(path, "classifier").
			Build()
	}

	return &forest, nil
}

// LoadGBTRegressor reads and validates the regressor artifact.
func LoadGBTRegressor(path string) (*GBTRegressor, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading regressor artifact: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryModelLoad).
			ModelContext(path, "regressor").
			Timing("regressor-load", time.Since(start)).
			Build()
	}

	var gbt GBTRegressor
	if err := json.Unmarshal(data, &gbt); err != nil {
		return nil, errors.New(fmt.Errorf("decoding regressor artifact: %w", err)).
			Component("cropmodel").
			Category(errors.CategoryModelLoad).
			ModelContext(path, "regressor").
			FileContext(path, int64(len(data))).
			Build()
	}

	if gbt.ModelType != ModelTypeGBTRegressor {
		return nil, errors.New(fmt.Errorf("artifact model type %q is not a boosted regressor", gbt.ModelType)).
			Component("cropmodel").
			Category(errors.CategoryModelInit).
			ModelContext(path, "regressor").
			Build()
	}
	if len(gbt.Trees) == 0 || len(gbt.FeatureNames) == 0 {
		return nil, errors.New(fmt.Errorf("regressor artifact is empty or malformed")).
			Component("cropmodel").
			Category(errors.CategoryModelInit).
			ModelContext(path, "regressor").
			Build()
	}

	return &gbt, nil
}
