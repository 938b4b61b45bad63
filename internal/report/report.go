// Package report assembles the combined advisory output for one farm
// submission and renders it for export.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/cropmodel"
)

// Report is the full advisory produced for one observation. Crop and Yield
// are nil when the corresponding stage was unavailable or not requested;
// the stage error strings carry the human-readable reason so a partial
// report still explains itself.
type Report struct {
	ID          string                     `json:"id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Observation *agronomy.FarmObservation  `json:"observation"`
	Warnings    []string                   `json:"warnings,omitempty"`
	Crop        *cropmodel.CropPrediction  `json:"crop,omitempty"`
	CropError   string                     `json:"crop_error,omitempty"`
	Yield       *cropmodel.YieldPrediction `json:"yield,omitempty"`
	YieldError  string                     `json:"yield_error,omitempty"`
	Indices     agronomy.Indices           `json:"indices"`
	Match       *agronomy.MatchReport      `json:"match,omitempty"`
}

// New creates a report shell for an observation with a fresh identifier.
// The pipeline fills in the stage results as they become available.
func New(obs *agronomy.FarmObservation, warnings []string) *Report {
	return &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now(),
		Observation: obs,
		Warnings:    warnings,
		Indices:     agronomy.ComputeIndices(obs),
	}
}

// Degraded reports whether any requested stage failed to produce output.
func (r *Report) Degraded() bool {
	return r.CropError != "" || r.YieldError != ""
}

// Record is the flat row shape reports persist and export as. Nested stage
// results are flattened to scalar columns so the row works for both the
// datastore and CSV output.
type Record struct {
	ID          string    `gorm:"column:id;primaryKey"`
	GeneratedAt time.Time `gorm:"index"`
	Nitrogen    float64
	Phosphorus  float64
	Potassium   float64
	Temperature float64
	Humidity    float64
	PH          float64
	Rainfall    float64
	Crop        string `gorm:"index"`
	CropScore   float64
	YieldTons   float64
	THI         float64
	THIBand     string
	SFI         float64
	SFIBand     string
	MatchPct    float64
	Warnings    string
	Degraded    bool
}

// ToRecord flattens the report for persistence and tabular export.
func (r *Report) ToRecord() Record {
	rec := Record{
		ID:          r.ID,
		GeneratedAt: r.GeneratedAt,
		Nitrogen:    r.Observation.Nitrogen,
		Phosphorus:  r.Observation.Phosphorus,
		Potassium:   r.Observation.Potassium,
		Temperature: r.Observation.Temperature,
		Humidity:    r.Observation.Humidity,
		PH:          r.Observation.PH,
		Rainfall:    r.Observation.Rainfall,
		THI:         r.Indices.THI,
		THIBand:     r.Indices.THIBand,
		SFI:         r.Indices.SFI,
		SFIBand:     r.Indices.SFIBand,
		Warnings:    strings.Join(r.Warnings, "; "),
		Degraded:    r.Degraded(),
	}
	if r.Crop != nil {
		rec.Crop = r.Crop.Crop
		rec.CropScore = r.Crop.Score
	}
	if r.Yield != nil {
		rec.YieldTons = r.Yield.TonsPerHectare
	}
	if r.Match != nil {
		rec.MatchPct = r.Match.Overall
	}
	return rec
}

// WriteReportsTable writes reports as tab-separated text. If filename is an
// empty string the output goes to stdout.
func WriteReportsTable(reports []*Report, filename string) error {
	var w io.Writer
	if filename == "" {
		w = os.Stdout
	} else {
		if !strings.HasSuffix(filename, ".txt") {
			filename += ".txt"
		}
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()
		w = file
	}

	header := "ID\tGenerated\tCrop\tScore\tYield (t/ha)\tTHI\tSFI\tMatch %\tWarnings\n"
	if _, err := w.Write([]byte(header)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var err error
	for _, r := range reports {
		rec := r.ToRecord()
		line := fmt.Sprintf("%s\t%s\t%s\t%.4f\t%.2f\t%.2f\t%.2f\t%.1f\t%s\n",
			rec.ID, rec.GeneratedAt.Format("2006-01-02 15:04:05"),
			rec.Crop, rec.CropScore, rec.YieldTons, rec.THI, rec.SFI, rec.MatchPct, rec.Warnings)
		if _, err = w.Write([]byte(line)); err != nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteReportsCsv writes reports in CSV format. If filename is an empty
// string the output goes to stdout.
func WriteReportsCsv(reports []*Report, filename string) error {
	var w io.Writer
	if filename == "" {
		w = os.Stdout
	} else {
		if !strings.HasSuffix(filename, ".csv") {
			filename += ".csv"
		}
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", filename, err)
		}
		defer file.Close()
		w = file
	}

	header := "id,generated_at,N,P,K,temperature,humidity,ph,rainfall,crop,score,yield_tons,thi,thi_band,sfi,sfi_band,match_pct,degraded\n"
	if _, err := w.Write([]byte(header)); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	var err error
	for _, r := range reports {
		rec := r.ToRecord()
		line := fmt.Sprintf("%s,%s,%g,%g,%g,%g,%g,%g,%g,%s,%.4f,%.2f,%.2f,%s,%.2f,%s,%.1f,%t\n",
			rec.ID, rec.GeneratedAt.Format(time.RFC3339),
			rec.Nitrogen, rec.Phosphorus, rec.Potassium, rec.Temperature,
			rec.Humidity, rec.PH, rec.Rainfall,
			rec.Crop, rec.CropScore, rec.YieldTons,
			rec.THI, rec.THIBand, rec.SFI, rec.SFIBand, rec.MatchPct, rec.Degraded)
		if _, err = w.Write([]byte(line)); err != nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write report to CSV: %w", err)
	}
	return nil
}
