package errors

import (
	"fmt"
	"testing"
)

func TestEnhancedErrorCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		build    func() *EnhancedError
		category ErrorCategory
	}{
		{
			name: "explicit category wins",
			build: func() *EnhancedError {
				return New(NewStd("classifier artifact missing")).
					Category(CategoryModelLoad).
					Build()
			},
			category: CategoryModelLoad,
		},
		{
			name: "model load detected from message",
			build: func() *EnhancedError {
				return New(NewStd("failed to load model from disk")).Build()
			},
			category: CategoryModelLoad,
		},
		{
			name: "label load detected from message",
			build: func() *EnhancedError {
				return New(NewStd("label encoder truncated")).Build()
			},
			category: CategoryLabelLoad,
		},
		{
			name: "prediction detected from message",
			build: func() *EnhancedError {
				return New(NewStd("inference over feature row rejected")).Build()
			},
			category: CategoryPrediction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ee := tt.build()
			if ee.Category != tt.category {
				t.Errorf("got category %q, want %q", ee.Category, tt.category)
			}
		})
	}
}

func TestEnhancedErrorUnwrap(t *testing.T) {
	t.Parallel()

	base := NewStd("base failure")
	wrapped := New(fmt.Errorf("stage 2: %w", base)).Category(CategoryPrediction).Build()

	if !Is(wrapped, base) {
		t.Error("expected wrapped error to match base via errors.Is")
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	modelErr := ModelError(NewStd("no such file"), "models/classifier.json", "classifier")
	if !IsModelUnavailable(modelErr) {
		t.Error("ModelError should report as model unavailable")
	}
	if IsUnsupportedCrop(modelErr) {
		t.Error("ModelError must not report as unsupported crop")
	}

	gateErr := Newf("crop %q not supported for yield prediction", "banana").
		Category(CategoryUnsupportedCrop).
		Build()
	if !IsUnsupportedCrop(gateErr) {
		t.Error("gate rejection should report as unsupported crop")
	}
	if IsModelUnavailable(gateErr) {
		t.Error("gate rejection must not report as model unavailable")
	}

	predErr := PredictionError(NewStd("unseen category"), "regressor")
	if !IsPredictionFailure(predErr) {
		t.Error("PredictionError should report as prediction failure")
	}
	if ctx := predErr.GetContext(); ctx["stage"] != "regressor" {
		t.Errorf("expected stage context, got %v", ctx)
	}
}

func TestContextCopyIsolation(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("boom")).Context("column", "Soil_Type").Build()
	ctx := ee.GetContext()
	ctx["column"] = "mutated"

	if got := ee.GetContext()["column"]; got != "Soil_Type" {
		t.Errorf("context copy leaked mutation, got %v", got)
	}
}
