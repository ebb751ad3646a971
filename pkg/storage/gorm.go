package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdziat/entrybatch/pkg/core"
	"github.com/jdziat/entrybatch/pkg/security"
)

// DefaultListLimit is used by ListRuns when limit is not positive.
const DefaultListLimit = 50

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// OpenSQLite opens (or creates) a SQLite database at path, configures the
// pool for a single writer and migrates the schema.
func OpenSQLite(ctx context.Context, path string, opts ...PoolOption) (*GormStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s, err := NewGormStorageWithPool(db, append([]PoolOption{SQLitePool()}, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// DB returns the underlying GORM handle.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the storage is backed by SQLite.
func (s *GormStorage) IsSQLite() bool {
	return s.db != nil && s.db.Dialector != nil && s.db.Dialector.Name() == "sqlite"
}

// Close closes the underlying connection pool.
func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Run{}, &core.RowOutcome{})
}

// CreateRun inserts a run summary.
func (s *GormStorage) CreateRun(ctx context.Context, run *core.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.State == "" {
		run.State = core.StateIdle
	}
	return s.db.WithContext(ctx).Create(run).Error
}

// UpdateRunState records a lifecycle transition and the report counts at
// that time. A nil report updates the state only.
func (s *GormStorage) UpdateRunState(ctx context.Context, runID string, state core.RunState, report *core.BatchReport) error {
	updates := map[string]any{"state": state}
	if report != nil {
		updates["total"] = report.Total
		updates["succeeded"] = len(report.Succeeded)
		updates["failed"] = len(report.Failed)
		updates["skipped"] = len(report.Skipped)
		updates["cancelled"] = report.Cancelled
		if report.LastFailure != nil {
			updates["last_error"] = security.SanitizeErrorMessage(report.LastFailure.Detail)
		}
		if !report.StartedAt.IsZero() {
			updates["started_at"] = report.StartedAt
		}
	}
	if state.Terminal() {
		finished := time.Now()
		if report != nil && !report.FinishedAt.IsZero() {
			finished = report.FinishedAt
		}
		updates["finished_at"] = finished
	}

	result := s.db.WithContext(ctx).
		Model(&core.Run{}).
		Where("id = ?", runID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrRunNotFound
	}
	return nil
}

// SaveRowOutcome stores the result of one record.
func (s *GormStorage) SaveRowOutcome(ctx context.Context, outcome *core.RowOutcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.New().String()
	}
	outcome.Detail = security.SanitizeErrorMessage(outcome.Detail)
	return s.db.WithContext(ctx).Create(outcome).Error
}

// GetRun retrieves a run by ID.
func (s *GormStorage) GetRun(ctx context.Context, runID string) (*core.Run, error) {
	var run core.Run
	err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *GormStorage) ListRuns(ctx context.Context, limit int) ([]*core.Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var runs []*core.Run
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// GetRowOutcomes returns the outcomes of a run in record order. An empty
// status returns every outcome.
func (s *GormStorage) GetRowOutcomes(ctx context.Context, runID string, status core.RowStatus) ([]*core.RowOutcome, error) {
	q := s.db.WithContext(ctx).Where("run_id = ?", runID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var outcomes []*core.RowOutcome
	err := q.Order("row_index ASC").Find(&outcomes).Error
	return outcomes, err
}

var _ core.Storage = (*GormStorage)(nil)
