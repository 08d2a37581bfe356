package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ethpandaops/regressoor/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// MinCursorableResultID is the smallest result ID eligible for cursor
// pagination. Rows minted before the switch to time-ordered IDs carry
// random identifiers that do not sort by insertion; they are excluded
// from paginated listings unless the query pins a specific run.
const MinCursorableResultID = "1600000000000000-00000000"

// Store provides persistence for benchmark results and runs.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	// Benchmark results.
	GetResult(ctx context.Context, id string) (*BenchmarkResult, error)
	ListResultsForRun(
		ctx context.Context, runID string,
	) ([]BenchmarkResult, error)
	ListResultsPage(
		ctx context.Context, q ResultPageQuery,
	) ([]BenchmarkResult, error)
	CreateResult(ctx context.Context, r *BenchmarkResult) error
	UpdateResult(ctx context.Context, r *BenchmarkResult) error
	DeleteResult(ctx context.Context, id string) error

	// Runs.
	GetRun(ctx context.Context, id string) (*Run, error)
	CreateRun(ctx context.Context, run *Run) error

	// History queries for the lookback z-score annotator.
	LatestResultTimestampForCommit(
		ctx context.Context, commitSHA string,
	) (int64, error)
	ListHistoryValues(
		ctx context.Context,
		fingerprint string,
		before int64,
		limit int,
	) ([]float64, error)
}

// ResultPageQuery describes one page of the result listing. Rows are
// returned most recent first (by ID, which sorts by insertion).
type ResultPageQuery struct {
	// Cursor, when non-empty, restricts rows to id < cursor.
	Cursor string

	// PageSize is the maximum number of rows returned. Validation is
	// the caller's job (pkg/pagination).
	PageSize int

	// RunID, when non-empty, restricts rows to one run and lifts the
	// MinCursorableResultID bound.
	RunID string

	// RunReason, when non-empty, restricts rows to runs with this
	// reason.
	RunReason string

	// EarliestTimestamp/LatestTimestamp bound the measurement time
	// (inclusive); zero means unbounded.
	EarliestTimestamp int64
	LatestTimestamp   int64
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&BenchmarkResult{},
		&Run{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// GetResult returns a benchmark result by ID.
func (s *store) GetResult(
	ctx context.Context, id string,
) (*BenchmarkResult, error) {
	var result BenchmarkResult
	if err := s.db.WithContext(ctx).
		First(&result, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("getting result: %w", err)
	}

	return &result, nil
}

// ListResultsForRun returns all benchmark results sharing a run ID.
func (s *store) ListResultsForRun(
	ctx context.Context, runID string,
) ([]BenchmarkResult, error) {
	var results []BenchmarkResult
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("listing results for run: %w", err)
	}

	return results, nil
}

// ListResultsPage returns one page of benchmark results, most recent
// first.
func (s *store) ListResultsPage(
	ctx context.Context, q ResultPageQuery,
) ([]BenchmarkResult, error) {
	db := s.db.WithContext(ctx).Model(&BenchmarkResult{})

	if q.RunID != "" {
		db = db.Where("benchmark_results.run_id = ?", q.RunID)
	} else {
		// Pre-migration rows have IDs that do not sort by insertion.
		db = db.Where("benchmark_results.id > ?", MinCursorableResultID)
	}

	if q.Cursor != "" {
		db = db.Where("benchmark_results.id < ?", q.Cursor)
	}

	if q.RunReason != "" {
		db = db.Joins(
			"JOIN runs ON runs.id = benchmark_results.run_id",
		).Where("runs.reason = ?", q.RunReason)
	}

	if q.EarliestTimestamp > 0 {
		db = db.Where(
			"benchmark_results.timestamp >= ?", q.EarliestTimestamp,
		)
	}

	if q.LatestTimestamp > 0 {
		db = db.Where(
			"benchmark_results.timestamp <= ?", q.LatestTimestamp,
		)
	}

	var results []BenchmarkResult
	if err := db.Order("benchmark_results.id DESC").
		Limit(q.PageSize).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("listing results page: %w", err)
	}

	return results, nil
}

// CreateResult inserts a benchmark result, minting an ID when absent.
func (s *store) CreateResult(
	ctx context.Context, r *BenchmarkResult,
) error {
	if r.ID == "" {
		r.ID = NewResultID()
	}

	if r.Timestamp == 0 {
		r.Timestamp = time.Now().Unix()
	}

	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("creating result: %w", err)
	}

	return nil
}

// UpdateResult saves changes to an existing benchmark result.
func (s *store) UpdateResult(
	ctx context.Context, r *BenchmarkResult,
) error {
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return fmt.Errorf("updating result: %w", err)
	}

	return nil
}

// DeleteResult removes a benchmark result by ID.
func (s *store) DeleteResult(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Delete(&BenchmarkResult{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting result: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetRun returns a run by ID.
func (s *store) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	if err := s.db.WithContext(ctx).
		First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("getting run: %w", err)
	}

	return &run, nil
}

// CreateRun inserts a run record.
func (s *store) CreateRun(ctx context.Context, run *Run) error {
	if run.Timestamp == 0 {
		run.Timestamp = time.Now().Unix()
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("creating run: %w", err)
	}

	return nil
}

// LatestResultTimestampForCommit returns the newest result timestamp
// recorded against the given commit, or 0 when the commit has no
// results.
func (s *store) LatestResultTimestampForCommit(
	ctx context.Context, commitSHA string,
) (int64, error) {
	var ts *int64
	if err := s.db.WithContext(ctx).
		Model(&BenchmarkResult{}).
		Where("commit_sha = ?", commitSHA).
		Select("MAX(timestamp)").
		Scan(&ts).Error; err != nil {
		return 0, fmt.Errorf("querying latest commit timestamp: %w", err)
	}

	if ts == nil {
		return 0, nil
	}

	return *ts, nil
}

// ListHistoryValues returns the single-value summaries of the most
// recent non-failed, commit-tied results for a history fingerprint at
// or before the given timestamp, newest first.
func (s *store) ListHistoryValues(
	ctx context.Context,
	fingerprint string,
	before int64,
	limit int,
) ([]float64, error) {
	var values []float64
	if err := s.db.WithContext(ctx).
		Model(&BenchmarkResult{}).
		Where(
			"history_fingerprint = ? AND failed = ? AND commit_sha <> '' AND timestamp <= ?",
			fingerprint, false, before,
		).
		Order("timestamp DESC").
		Limit(limit).
		Pluck("svs", &values).Error; err != nil {
		return nil, fmt.Errorf("listing history values: %w", err)
	}

	return values, nil
}

// NewResultID mints a lexicographically ordered result identifier:
// zero-padded hex of the insertion time in nanoseconds plus a random
// suffix to break ties within the same nanosecond.
func NewResultID() string {
	var suffix [4]byte

	_, _ = rand.Read(suffix[:])

	return fmt.Sprintf(
		"%016x-%s", time.Now().UnixNano(), hex.EncodeToString(suffix[:]),
	)
}
