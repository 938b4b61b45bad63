// Package datastore persists generated reports. Persistence is optional;
// the pipeline works identically with a nil store.
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cropinsight/cropinsight-go/internal/errors"
	"github.com/cropinsight/cropinsight-go/internal/observability/metrics"
	"github.com/cropinsight/cropinsight-go/internal/report"
)

// Interface is the storage contract the rest of the application depends on.
type Interface interface {
	Open() error
	Close() error
	Save(rec *report.Record) error
	Get(id string) (*report.Record, error)
	Latest(limit int) ([]report.Record, error)
	Count() (int64, error)
}

// DataStore implements the Interface using gorm, independent of the
// underlying driver.
type DataStore struct {
	DB      *gorm.DB
	metrics *metrics.DatastoreMetrics
}

// SetMetrics attaches datastore metrics. Optional; a nil recorder is safe.
func (ds *DataStore) SetMetrics(m *metrics.DatastoreMetrics) {
	ds.metrics = m
}

// Save inserts a new report record.
func (ds *DataStore) Save(rec *report.Record) error {
	start := time.Now()
	err := ds.save(rec)
	ds.metrics.RecordOperation("save", time.Since(start).Seconds(), err)
	return err
}

func (ds *DataStore) save(rec *report.Record) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if err := ds.DB.Create(rec).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save").
			Context("report_id", rec.ID).
			Build()
	}
	return nil
}

// Get retrieves one report record by its identifier.
func (ds *DataStore) Get(id string) (*report.Record, error) {
	start := time.Now()
	rec, err := ds.get(id)
	ds.metrics.RecordOperation("get", time.Since(start).Seconds(), err)
	return rec, err
}

func (ds *DataStore) get(id string) (*report.Record, error) {
	var rec report.Record
	if err := ds.DB.Where("id = ?", id).First(&rec).Error; err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(err).
			Component("datastore").
			Category(category).
			Context("operation", "get").
			Context("report_id", id).
			Build()
	}
	return &rec, nil
}

// Latest returns the most recent report records, newest first.
func (ds *DataStore) Latest(limit int) ([]report.Record, error) {
	start := time.Now()
	recs, err := ds.latest(limit)
	ds.metrics.RecordOperation("latest", time.Since(start).Seconds(), err)
	return recs, err
}

func (ds *DataStore) latest(limit int) ([]report.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []report.Record
	err := ds.DB.Order("generated_at DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "latest").
			Build()
	}
	return recs, nil
}

// Count returns the number of stored report records.
func (ds *DataStore) Count() (int64, error) {
	var count int64
	err := ds.DB.Model(&report.Record{}).Count(&count).Error
	if err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "count").
			Build()
	}
	ds.metrics.SetReportCount(float64(count))
	return count, nil
}

// createGormLogger configures the GORM logger used by all drivers.
func createGormLogger() gormlogger.Interface {
	return gormlogger.Default.LogMode(gormlogger.Warn)
}

// performAutoMigration migrates the report schema, wrapping failures with
// the driver context.
func performAutoMigration(db *gorm.DB, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&report.Record{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database at %s: %w", dbType, connectionInfo, err)
	}
	return nil
}
