package analysis

import (
	"github.com/cropinsight/cropinsight-go/internal/agronomy"
	"github.com/cropinsight/cropinsight-go/internal/conf"
	"github.com/cropinsight/cropinsight-go/internal/cropmodel"
	"github.com/cropinsight/cropinsight-go/internal/datastore"
	"github.com/cropinsight/cropinsight-go/internal/logging"
	"github.com/cropinsight/cropinsight-go/internal/observability"
)

// Components bundles everything built from settings that commands share.
type Components struct {
	Model    *cropmodel.CropModel
	Refs     *agronomy.ReferenceSet
	Store    datastore.Interface
	Metrics  *observability.Metrics
	Pipeline *Pipeline
}

// Setup builds the model, reference set, optional datastore and the
// pipeline from settings. Model artifact problems do not fail setup; the
// per-stage errors surface in reports. A missing reference set is logged
// and match scoring is skipped.
func Setup(settings *conf.Settings, metrics *observability.Metrics) (*Components, error) {
	log := logging.ForService("analysis")

	model, err := cropmodel.New(&cropmodel.Config{
		ClassifierPath: settings.Model.ClassifierPath,
		LabelPath:      settings.Model.LabelPath,
		RegressorPath:  settings.Model.RegressorPath,
		Debug:          settings.Debug,
	})
	if err != nil {
		return nil, err
	}
	if metrics != nil {
		metrics.CropModel.RecordModelLoad("classifier", model.Stage1Error())
		metrics.CropModel.RecordModelLoad("regressor", model.Stage2Error())
	}
	if !model.Stage1Available() {
		log.Warn("crop recommendation stage unavailable", "error", model.Stage1Error())
	}
	if !model.Stage2Available() {
		log.Warn("yield estimation stage unavailable", "error", model.Stage2Error())
	}

	var refs *agronomy.ReferenceSet
	if settings.Reference.Path != "" {
		refs, err = agronomy.LoadReferenceSet(settings.Reference.Path)
		if err != nil {
			log.Warn("reference set unavailable, match scoring disabled",
				"path", settings.Reference.Path,
				"error", err)
			refs = nil
		}
	}

	var store datastore.Interface
	if settings.Datastore.Enabled {
		sqliteStore := datastore.NewSQLite(settings.Datastore.Path)
		if err := sqliteStore.Open(); err != nil {
			return nil, err
		}
		if metrics != nil {
			sqliteStore.SetMetrics(metrics.Datastore)
		}
		store = sqliteStore
	}

	opts := []Option{
		WithBaselineKind(agronomy.BaselineKind(settings.Reference.Baseline)),
	}
	if refs != nil {
		opts = append(opts, WithReferenceSet(refs))
	}
	if store != nil {
		opts = append(opts, WithDatastore(store))
	}
	if metrics != nil {
		opts = append(opts, WithMetrics(metrics))
	}

	return &Components{
		Model:    model,
		Refs:     refs,
		Store:    store,
		Metrics:  metrics,
		Pipeline: New(model, opts...),
	}, nil
}

// Close releases any resources held by the components.
func (c *Components) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
