// Package predict implements the one-shot advisory command.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/analysis"
	"github.com/cropinsight/cropinsight-go/internal/conf"
	"github.com/cropinsight/cropinsight-go/internal/report"
)

// flags local to the predict command
type options struct {
	input     string
	yieldCrop string
	withYield bool
	format    string

	obs    agronomy.FarmObservation
	inputs agronomy.YieldInputs

	soilType       string
	irrigationType string
}

// Command creates the predict subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Generate a crop advisory for one observation",
		Long: "Run the advisory pipeline for a single farm observation supplied " +
			"via flags or an input file, and print the resulting report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, opts)
		},
	}

	setupFlags(cmd, opts)
	return cmd
}

func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Observation file (json or yaml); flags override file values")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: json, table or csv (default from config)")

	cmd.Flags().Float64Var(&opts.obs.Nitrogen, "nitrogen", 0, "Soil nitrogen (N)")
	cmd.Flags().Float64Var(&opts.obs.Phosphorus, "phosphorus", 0, "Soil phosphorus (P)")
	cmd.Flags().Float64Var(&opts.obs.Potassium, "potassium", 0, "Soil potassium (K)")
	cmd.Flags().Float64Var(&opts.obs.Temperature, "temperature", 0, "Temperature in °C")
	cmd.Flags().Float64Var(&opts.obs.Humidity, "humidity", 0, "Relative humidity in %")
	cmd.Flags().Float64Var(&opts.obs.PH, "ph", 0, "Soil pH")
	cmd.Flags().Float64Var(&opts.obs.Rainfall, "rainfall", 0, "Rainfall in mm")

	cmd.Flags().BoolVar(&opts.withYield, "yield", false, "Also estimate yield for the recommended crop")
	cmd.Flags().StringVar(&opts.yieldCrop, "yield-crop", "", "Estimate yield for this crop instead of the recommendation")
	cmd.Flags().Float64Var(&opts.inputs.SoilMoisture, "soil-moisture", 0, "Soil moisture in %")
	cmd.Flags().Float64Var(&opts.inputs.SunlightHours, "sunlight-hours", 0, "Sunlight hours per day")
	cmd.Flags().Float64Var(&opts.inputs.FertilizerUsed, "fertilizer", 0, "Fertilizer used in kg/ha")
	cmd.Flags().Float64Var(&opts.inputs.PesticideUsed, "pesticide", 0, "Pesticide used in kg/ha")
	cmd.Flags().StringVar(&opts.soilType, "soil-type", "", "Soil type: Sandy, Loamy, Clay or Silty")
	cmd.Flags().StringVar(&opts.irrigationType, "irrigation", "", "Irrigation type: Drip, Sprinkler, Flood or Rainfed")
}

func run(settings *conf.Settings, opts *options) error {
	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	components, err := analysis.Setup(settings, nil)
	if err != nil {
		return err
	}
	defer components.Close()

	r, err := components.Pipeline.Run(context.Background(), req)
	if err != nil {
		return err
	}

	for _, warning := range r.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}

	return output(settings, opts, r)
}

// buildRequest assembles the pipeline request from the input file and
// flags. Flag values are merged over the file.
func buildRequest(opts *options) (*analysis.Request, error) {
	req := &analysis.Request{}

	if opts.input != "" {
		if err := loadInput(opts.input, req); err != nil {
			return nil, err
		}
	}

	mergeObservation(&req.Observation, &opts.obs)

	if opts.withYield || opts.yieldCrop != "" {
		yield := req.Yield
		if yield == nil {
			yield = &analysis.YieldRequest{}
		}
		if opts.yieldCrop != "" {
			yield.Crop = opts.yieldCrop
		}
		mergeYieldInputs(&yield.Inputs, opts)
		req.Yield = yield
	}

	if req.Yield != nil {
		if req.Yield.Inputs.SoilType == "" || req.Yield.Inputs.IrrigationType == "" {
			return nil, fmt.Errorf("yield estimation requires --soil-type and --irrigation")
		}
	}

	return req, nil
}

// loadInput reads a request from a JSON or YAML file.
func loadInput(path string, req *analysis.Request) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, req); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, req); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return nil
}

// mergeObservation overlays non-zero flag values onto the file values.
func mergeObservation(dst, src *agronomy.FarmObservation) {
	for i, v := range src.FeatureVector() {
		if v == 0 {
			continue
		}
		switch i {
		case 0:
			dst.Nitrogen = v
		case 1:
			dst.Phosphorus = v
		case 2:
			dst.Potassium = v
		case 3:
			dst.Temperature = v
		case 4:
			dst.Humidity = v
		case 5:
			dst.PH = v
		case 6:
			dst.Rainfall = v
		}
	}
}

func mergeYieldInputs(dst *agronomy.YieldInputs, opts *options) {
	if opts.inputs.SoilMoisture != 0 {
		dst.SoilMoisture = opts.inputs.SoilMoisture
	}
	if opts.inputs.SunlightHours != 0 {
		dst.SunlightHours = opts.inputs.SunlightHours
	}
	if opts.inputs.FertilizerUsed != 0 {
		dst.FertilizerUsed = opts.inputs.FertilizerUsed
	}
	if opts.inputs.PesticideUsed != 0 {
		dst.PesticideUsed = opts.inputs.PesticideUsed
	}
	if opts.soilType != "" {
		soil, ok := agronomy.ParseSoilType(opts.soilType)
		if ok {
			dst.SoilType = soil
		}
	}
	if opts.irrigationType != "" {
		irrigation, ok := agronomy.ParseIrrigationType(opts.irrigationType)
		if ok {
			dst.IrrigationType = irrigation
		}
	}
}

// output prints the report in the selected format.
func output(settings *conf.Settings, opts *options, r *report.Report) error {
	format := opts.format
	if format == "" {
		format = "json"
		if settings.Output.Enabled {
			format = settings.Output.Type
		}
	}

	path := ""
	if settings.Output.Enabled {
		path = settings.Output.Path
	}

	switch format {
	case "json":
		encoded, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	case "table":
		return report.WriteReportsTable([]*report.Report{r}, path)
	case "csv":
		return report.WriteReportsCsv([]*report.Report{r}, path)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
