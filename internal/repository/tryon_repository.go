package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatkhan05/ai-try-on/internal/logging"
)

// TryOnRepository persists try-on logs in PostgreSQL through gorm.
type TryOnRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewTryOnRepository creates a new repository instance.
func NewTryOnRepository(db *gorm.DB, logger *zap.Logger) *TryOnRepository {
	return &TryOnRepository{
		db:             db,
		logger:         logger.Named("tryon_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *TryOnRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&TryOnLog{})
}

// SaveLog persists a try-on log entry.
func (r *TryOnRepository) SaveLog(ctx context.Context, log *TryOnLog) error {
	return r.executeWithRetry(ctx, "repository.save_log", log.RequestID, func() error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// FindByRequestID retrieves the log written for a request.
func (r *TryOnRepository) FindByRequestID(ctx context.Context, requestID string) (*TryOnLog, error) {
	var log TryOnLog
	err := r.executeWithRetry(ctx, "repository.find_by_request_id", requestID, func() error {
		return r.db.WithContext(ctx).First(&log, "request_id = ?", requestID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// AggregateMetrics computes totals and averages across all logs.
func (r *TryOnRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var totals struct {
		TotalCount              int64
		AverageConfidence       float64
		AverageProcessingTimeMs float64
	}
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		return r.db.WithContext(ctx).
			Model(&TryOnLog{}).
			Select("COUNT(*) AS total_count, " +
				"COALESCE(AVG(confidence), 0) AS average_confidence, " +
				"COALESCE(AVG(processing_time_ms), 0) AS average_processing_time_ms").
			Scan(&totals).Error
	})
	if err != nil {
		return nil, err
	}

	var perGarment []struct {
		Garment string
		Count   int64
	}
	err = r.executeWithRetry(ctx, "repository.aggregate_garments", "", func() error {
		return r.db.WithContext(ctx).
			Model(&TryOnLog{}).
			Select("garment, COUNT(*) AS count").
			Group("garment").
			Scan(&perGarment).Error
	})
	if err != nil {
		return nil, err
	}

	agg := &MetricsAggregation{
		TotalCount:              totals.TotalCount,
		AverageConfidence:       totals.AverageConfidence,
		AverageProcessingTimeMs: totals.AverageProcessingTimeMs,
		GarmentCounts:           make(map[string]int64, len(perGarment)),
	}
	for _, row := range perGarment {
		agg.GarmentCounts[row.Garment] = row.Count
	}
	return agg, nil
}

func (r *TryOnRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, requestID)

	var err error
	for attempt := 0; attempt < r.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if !isTransientError(err) || attempt == r.retryAttempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
