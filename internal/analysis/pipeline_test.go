package analysis

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/cropmodel"
	"github.com/cropinsight/cropinsight-go/internal/errors"
	"github.com/cropinsight/cropinsight-go/internal/report"
	"github.com/cropinsight/cropinsight-go/internal/testutil"
)

func riceObservation() agronomy.FarmObservation {
	return agronomy.FarmObservation{
		Nitrogen: 90, Phosphorus: 42, Potassium: 43,
		Temperature: 20.9, Humidity: 82.0, PH: 6.5, Rainfall: 202.9,
	}
}

func newTestModel(t *testing.T) *cropmodel.CropModel {
	t.Helper()

	dir := t.TempDir()
	cm, err := cropmodel.New(&cropmodel.Config{
		ClassifierPath: testutil.WriteClassifier(t, dir),
		LabelPath:      testutil.WriteLabels(t, dir),
		RegressorPath:  testutil.WriteRegressor(t, dir),
	})
	if err != nil {
		t.Fatalf("cropmodel.New: %v", err)
	}
	return cm
}

func testReferenceSet(t *testing.T) *agronomy.ReferenceSet {
	t.Helper()

	csv := "N,P,K,temperature,humidity,ph,rainfall,label\n" +
		"90,42,43,20.9,82.0,6.5,202.9,rice\n" +
		"85,40,40,21.5,80.0,6.2,210.0,rice\n" +
		"70,50,20,24.0,60.0,6.8,80.0,maize\n"
	path := filepath.Join(t.TempDir(), "reference.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write reference csv: %v", err)
	}
	refs, err := agronomy.LoadReferenceSet(path)
	if err != nil {
		t.Fatalf("LoadReferenceSet: %v", err)
	}
	return refs
}

type recordingStore struct {
	saved  []report.Record
	failed bool
}

func (s *recordingStore) Open() error  { return nil }
func (s *recordingStore) Close() error { return nil }
func (s *recordingStore) Save(rec *report.Record) error {
	if s.failed {
		return errors.Newf("disk full").Component("datastore").Category(errors.CategoryDatabase).Build()
	}
	s.saved = append(s.saved, *rec)
	return nil
}
func (s *recordingStore) Get(string) (*report.Record, error)  { return nil, nil }
func (s *recordingStore) Latest(int) ([]report.Record, error) { return nil, nil }
func (s *recordingStore) Count() (int64, error)               { return int64(len(s.saved)), nil }

func TestRunFullAdvisory(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	p := New(newTestModel(t),
		WithReferenceSet(testReferenceSet(t)),
		WithDatastore(store),
	)

	r, err := p.Run(context.Background(), &Request{
		Observation: riceObservation(),
		Yield: &YieldRequest{
			Inputs: agronomy.YieldInputs{
				SoilMoisture:   45,
				SunlightHours:  8,
				FertilizerUsed: 120,
				PesticideUsed:  2,
				SoilType:       agronomy.SoilLoamy,
				IrrigationType: agronomy.IrrigationDrip,
			},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if r.Crop == nil || r.Crop.Crop != "rice" {
		t.Fatalf("expected rice recommendation, got %+v", r.Crop)
	}
	if r.Yield == nil {
		t.Fatalf("expected yield for rice, got error %q", r.YieldError)
	}
	want := testutil.RegressorBaseScore + testutil.RegressorRiceBonus + testutil.RegressorHighFert
	if math.Abs(r.Yield.TonsPerHectare-want) > 1e-12 {
		t.Errorf("yield = %v, want %v", r.Yield.TonsPerHectare, want)
	}
	if r.Match == nil || r.Match.Crop != "rice" {
		t.Fatalf("expected match report for rice, got %+v", r.Match)
	}
	if r.Match.Overall < 90 {
		t.Errorf("near-baseline observation should match well, got %.1f%%", r.Match.Overall)
	}
	if r.Degraded() {
		t.Errorf("expected complete report, got crop=%q yield=%q", r.CropError, r.YieldError)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(store.saved))
	}
	if store.saved[0].ID != r.ID {
		t.Errorf("persisted id %q does not match report %q", store.saved[0].ID, r.ID)
	}
}

func TestRunRecommendationOnly(t *testing.T) {
	t.Parallel()

	p := New(newTestModel(t))

	r, err := p.Run(context.Background(), &Request{Observation: riceObservation()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Crop == nil {
		t.Fatal("expected recommendation")
	}
	if r.Yield != nil || r.YieldError != "" {
		t.Errorf("yield stage must not run unrequested: %+v %q", r.Yield, r.YieldError)
	}
	// No reference set configured; the match section is simply absent.
	if r.Match != nil {
		t.Errorf("expected no match report, got %+v", r.Match)
	}
}

func TestRunDegradesWhenClassifierMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cm, err := cropmodel.New(&cropmodel.Config{
		ClassifierPath: filepath.Join(dir, "missing.json"),
		LabelPath:      testutil.WriteLabels(t, dir),
		RegressorPath:  testutil.WriteRegressor(t, dir),
	})
	if err != nil {
		t.Fatalf("cropmodel.New: %v", err)
	}
	p := New(cm)

	r, err := p.Run(context.Background(), &Request{
		Observation: riceObservation(),
		Yield: &YieldRequest{
			Crop: "maize",
			Inputs: agronomy.YieldInputs{
				SoilType:       agronomy.SoilClay,
				IrrigationType: agronomy.IrrigationFlood,
			},
		},
	})
	if err != nil {
		t.Fatalf("stage failure must degrade, not fail: %v", err)
	}
	if r.Crop != nil || r.CropError == "" {
		t.Errorf("expected crop stage degradation, got %+v %q", r.Crop, r.CropError)
	}
	// Stage 2 runs independently when the caller names the crop.
	if r.Yield == nil {
		t.Errorf("expected yield despite classifier outage, got %q", r.YieldError)
	}
	if !r.Degraded() {
		t.Error("report must flag degradation")
	}
}

func TestRunUnsupportedYieldCrop(t *testing.T) {
	t.Parallel()

	p := New(newTestModel(t))

	r, err := p.Run(context.Background(), &Request{
		Observation: riceObservation(),
		Yield: &YieldRequest{
			Crop:   "banana",
			Inputs: agronomy.YieldInputs{SoilType: agronomy.SoilLoamy, IrrigationType: agronomy.IrrigationDrip},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Yield != nil {
		t.Fatal("banana has no yield model")
	}
	if !strings.Contains(r.YieldError, "banana") {
		t.Errorf("yield error should name the crop, got %q", r.YieldError)
	}
}

func TestRunInvalidInput(t *testing.T) {
	t.Parallel()

	p := New(newTestModel(t))

	obs := riceObservation()
	obs.PH = math.NaN()
	_, err := p.Run(context.Background(), &Request{Observation: obs})
	if err == nil {
		t.Fatal("NaN input must fail the request")
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	p := New(newTestModel(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, &Request{Observation: riceObservation()})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestRunStoreFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	p := New(newTestModel(t), WithDatastore(&recordingStore{failed: true}))

	r, err := p.Run(context.Background(), &Request{Observation: riceObservation()})
	if err != nil {
		t.Fatalf("storage failure must not fail the request: %v", err)
	}
	if r.Crop == nil {
		t.Error("expected recommendation despite storage failure")
	}
}
