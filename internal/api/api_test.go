package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/analysis"
	"github.com/cropinsight/cropinsight-go/internal/conf"
	"github.com/cropinsight/cropinsight-go/internal/cropmodel"
	"github.com/cropinsight/cropinsight-go/internal/report"
	"github.com/cropinsight/cropinsight-go/internal/testutil"
)

const predictBody = `{
	"observation": {
		"nitrogen": 90, "phosphorus": 42, "potassium": 43,
		"temperature": 20.9, "humidity": 82.0, "ph": 6.5, "rainfall": 202.9
	}
}`

func testSettings() *conf.Settings {
	return &conf.Settings{
		Reference: conf.ReferenceSettings{Baseline: "mean"},
		WebServer: conf.WebServerSettings{Host: "127.0.0.1", Port: "8080"},
	}
}

func newTestController(t *testing.T, mutate func(*conf.Settings)) *Controller {
	t.Helper()

	dir := t.TempDir()
	model, err := cropmodel.New(&cropmodel.Config{
		ClassifierPath: testutil.WriteClassifier(t, dir),
		LabelPath:      testutil.WriteLabels(t, dir),
		RegressorPath:  testutil.WriteRegressor(t, dir),
	})
	if err != nil {
		t.Fatalf("cropmodel.New: %v", err)
	}

	csv := "N,P,K,temperature,humidity,ph,rainfall,label\n" +
		"90,42,43,20.9,82.0,6.5,202.9,rice\n" +
		"70,50,20,24.0,60.0,6.8,80.0,maize\n"
	refPath := filepath.Join(dir, "reference.csv")
	if err := os.WriteFile(refPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write reference csv: %v", err)
	}
	refs, err := agronomy.LoadReferenceSet(refPath)
	if err != nil {
		t.Fatalf("LoadReferenceSet: %v", err)
	}

	settings := testSettings()
	if mutate != nil {
		mutate(settings)
	}

	pipeline := analysis.New(model, analysis.WithReferenceSet(refs))
	return New(settings, pipeline, model, refs, nil, nil)
}

func doRequest(c *Controller, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestPredictEndpoint(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	rec := doRequest(c, http.MethodPost, "/api/v1/predict", predictBody, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("predict returned %d: %s", rec.Code, rec.Body.String())
	}

	var r report.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if r.Crop == nil || r.Crop.Crop != "rice" {
		t.Errorf("expected rice recommendation, got %+v", r.Crop)
	}
	if r.Match == nil {
		t.Error("expected match section for rice")
	}
	if r.ID == "" {
		t.Error("expected report id")
	}
}

func TestPredictEndpointBadBody(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	rec := doRequest(c, http.MethodPost, "/api/v1/predict", "{not json", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPredictEndpointNaN(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	body := `{"observation": {"nitrogen": 90, "ph": "NaN"}}`
	rec := doRequest(c, http.MethodPost, "/api/v1/predict", body, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric input, got %d", rec.Code)
	}
}

func TestYieldEndpoint(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	body := `{
		"observation": {
			"nitrogen": 90, "phosphorus": 42, "potassium": 43,
			"temperature": 20.9, "humidity": 82.0, "ph": 6.5, "rainfall": 202.9
		},
		"crop": "rice",
		"inputs": {
			"soil_moisture": 45, "sunlight_hours": 8,
			"fertilizer_used": 120, "pesticide_used": 2,
			"soil_type": "Loamy", "irrigation_type": "Drip"
		}
	}`
	rec := doRequest(c, http.MethodPost, "/api/v1/yield", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("yield returned %d: %s", rec.Code, rec.Body.String())
	}

	var pred cropmodel.YieldPrediction
	if err := json.Unmarshal(rec.Body.Bytes(), &pred); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	want := testutil.RegressorBaseScore + testutil.RegressorRiceBonus + testutil.RegressorHighFert
	if pred.TonsPerHectare != want {
		t.Errorf("yield = %v, want %v", pred.TonsPerHectare, want)
	}
}

func TestYieldEndpointUnsupportedCrop(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	body := `{"observation": {}, "crop": "banana", "inputs": {"soil_type": "Loamy", "irrigation_type": "Drip"}}`
	rec := doRequest(c, http.MethodPost, "/api/v1/yield", body, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unsupported crop, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestYieldEndpointMissingCrop(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	rec := doRequest(c, http.MethodPost, "/api/v1/yield", `{"observation": {}}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing crop, got %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	rec := doRequest(c, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz returned %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v", resp["status"])
	}
	if resp["recommendation_available"] != true || resp["yield_estimate_available"] != true {
		t.Errorf("expected both stages available: %v", resp)
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	c := newTestController(t, func(s *conf.Settings) {
		s.WebServer.AuthToken = "sekret"
	})

	if rec := doRequest(c, http.MethodPost, "/api/v1/predict", predictBody, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", rec.Code)
	}
	if rec := doRequest(c, http.MethodPost, "/api/v1/predict", predictBody, "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: expected 401, got %d", rec.Code)
	}
	if rec := doRequest(c, http.MethodPost, "/api/v1/predict", predictBody, "sekret"); rec.Code != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", rec.Code)
	}

	// Health stays open regardless of auth configuration.
	if rec := doRequest(c, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz must not require auth, got %d", rec.Code)
	}
}

func TestListCrops(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	rec := doRequest(c, http.MethodGet, "/api/v1/crops", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("crops returned %d", rec.Code)
	}

	var resp cropsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Crops) != len(cropmodel.KnownCrops) {
		t.Fatalf("crops listed = %d, want %d", len(resp.Crops), len(cropmodel.KnownCrops))
	}

	byName := make(map[string]cropInfo, len(resp.Crops))
	for _, info := range resp.Crops {
		byName[info.Name] = info
	}
	if !byName["rice"].YieldSupported || !byName["rice"].HasBaseline {
		t.Errorf("rice info = %+v", byName["rice"])
	}
	if byName["banana"].YieldSupported {
		t.Error("banana must not support yield")
	}
	if byName["banana"].HasBaseline {
		t.Error("banana has no baseline in the test reference set")
	}
}

func TestCropBaseline(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	rec := doRequest(c, http.MethodGet, "/api/v1/crops/rice/baseline", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("baseline returned %d", rec.Code)
	}

	var resp baselineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Crop != "rice" || resp.Kind != "mean" {
		t.Errorf("baseline meta = %+v", resp)
	}
	if resp.Baseline["N"] != 90 {
		t.Errorf("baseline N = %v, want 90", resp.Baseline["N"])
	}

	// Second request is served from cache and must be identical.
	rec2 := doRequest(c, http.MethodGet, "/api/v1/crops/rice/baseline", "", "")
	if rec2.Code != http.StatusOK || rec2.Body.String() != rec.Body.String() {
		t.Error("cached baseline response differs")
	}

	if rec := doRequest(c, http.MethodGet, "/api/v1/crops/dragonfruit/baseline", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown crop: expected 404, got %d", rec.Code)
	}
}

func TestReportsUnavailableWithoutDatastore(t *testing.T) {
	t.Parallel()

	c := newTestController(t, nil)

	if rec := doRequest(c, http.MethodGet, "/api/v1/reports", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without datastore, got %d", rec.Code)
	}
}
