package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if m.CropModel == nil || m.HTTP == nil || m.Datastore == nil {
		t.Fatal("expected all collectors to be initialized")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.CropModel.IncrementRecommendation("rice")
	m.CropModel.RecordPrediction("classifier", 0.001, nil)
	m.CropModel.RecordPrediction("regressor", 0, errors.New("regressor artifact missing"))
	m.HTTP.RecordRequest(http.MethodPost, "/api/v1/predict", http.StatusOK, 0.004)
	m.Datastore.RecordOperation("save", 0.002, nil)

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`cropinsight_recommendations_total{crop="rice"} 1`,
		`cropinsight_predictions_total{stage="classifier",status="success"} 1`,
		`cropinsight_predictions_total{stage="regressor",status="error"} 1`,
		"http_requests_total",
		"datastore_operations_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilCollectorsAreSafe(t *testing.T) {
	t.Parallel()

	m := &Metrics{}
	m.CropModel.RecordPrediction("classifier", 0, nil)
	m.CropModel.IncrementRecommendation("maize")
	m.CropModel.RecordModelLoad("classifier", nil)
	m.HTTP.RecordRequest(http.MethodGet, "/", http.StatusOK, 0)
	m.HTTP.RecordAuth("success")
	m.Datastore.RecordOperation("save", 0, nil)
	m.Datastore.SetReportCount(0)
}
