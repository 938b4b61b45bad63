package cropmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cropinsight/cropinsight-go/internal/errors"
	"github.com/cropinsight/cropinsight-go/internal/testutil"
)

func TestTreeEval(t *testing.T) {
	t.Parallel()

	tree := Tree{Nodes: []TreeNode{
		{Feature: 0, Threshold: 10, Left: 1, Right: 2},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{1, 0}},
		{Feature: -1, Left: -1, Right: -1, Value: []float64{0, 1}},
	}}

	left, err := tree.eval([]float64{5})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if left[0] != 1 {
		t.Errorf("expected left leaf for value below threshold, got %v", left)
	}

	right, err := tree.eval([]float64{15})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if right[1] != 1 {
		t.Errorf("expected right leaf for value above threshold, got %v", right)
	}

	// Boundary routes left: split condition is feature <= threshold.
	boundary, err := tree.eval([]float64{10})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if boundary[0] != 1 {
		t.Errorf("expected left leaf at threshold boundary, got %v", boundary)
	}
}

func TestTreeEvalCorrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tree Tree
	}{
		{
			name: "cyclic tree never reaches leaf",
			tree: Tree{Nodes: []TreeNode{
				{Feature: 0, Threshold: 10, Left: 1, Right: 1},
				{Feature: 0, Threshold: 10, Left: 0, Right: 0},
			}},
		},
		{
			name: "child index out of range",
			tree: Tree{Nodes: []TreeNode{
				{Feature: 0, Threshold: 10, Left: 5, Right: 5},
			}},
		},
		{
			name: "feature index beyond row",
			tree: Tree{Nodes: []TreeNode{
				{Feature: 9, Threshold: 10, Left: 1, Right: 1},
				{Feature: -1, Left: -1, Right: -1, Value: []float64{1}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := tt.tree.eval([]float64{5}); err == nil {
				t.Error("expected error for corrupt tree")
			}
		})
	}
}

func TestLoadForestClassifier(t *testing.T) {
	t.Parallel()

	path := testutil.WriteClassifier(t, t.TempDir())
	forest, err := LoadForestClassifier(path)
	if err != nil {
		t.Fatalf("LoadForestClassifier: %v", err)
	}

	if forest.NumClass != 22 || forest.NumFeat != 7 {
		t.Errorf("unexpected model dimensions: %d classes, %d features", forest.NumClass, forest.NumFeat)
	}
	if len(forest.Trees) != 3 {
		t.Errorf("expected 3 trees, got %d", len(forest.Trees))
	}
}

func TestLoadForestClassifierFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadForestClassifier(filepath.Join(dir, "absent.json"))
		if !errors.IsModelUnavailable(err) {
			t.Errorf("expected model-unavailable error, got %v", err)
		}
	})

	t.Run("corrupt json", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "corrupt.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadForestClassifier(path)
		if !errors.IsModelUnavailable(err) {
			t.Errorf("expected model-unavailable error, got %v", err)
		}
	})

	t.Run("wrong model type", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "wrong.json")
		if err := os.WriteFile(path, []byte(`{"model_type":"linear","n_classes":2,"n_features":2,"trees":[{"nodes":[]}]}`), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadForestClassifier(path)
		if !errors.IsModelUnavailable(err) {
			t.Errorf("expected model-unavailable error, got %v", err)
		}
	})
}

func TestGBTRegressorPredict(t *testing.T) {
	t.Parallel()

	path := testutil.WriteRegressor(t, t.TempDir())
	gbt, err := LoadGBTRegressor(path)
	if err != nil {
		t.Fatalf("LoadGBTRegressor: %v", err)
	}

	row := make([]float64, len(gbt.FeatureNames))
	row[7] = 2   // crop code: rice
	row[10] = 50 // fertilizer below split

	got, err := gbt.Predict(row)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := testutil.RegressorBaseScore + testutil.RegressorRiceBonus + testutil.RegressorLowFert
	if got != want {
		t.Errorf("prediction = %v, want %v", got, want)
	}

	if _, err := gbt.Predict([]float64{1, 2}); err == nil {
		t.Error("expected error for short feature row")
	}
}
