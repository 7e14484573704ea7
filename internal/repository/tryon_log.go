package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no log matches a lookup.
var ErrNotFound = errors.New("try-on log not found")

// TryOnLog is the audit record of a completed try-on.
type TryOnLog struct {
	ID               uint      `gorm:"primaryKey"`
	RequestID        string    `gorm:"column:request_id;uniqueIndex;size:64"`
	SessionID        string    `gorm:"column:session_id;index;size:128"`
	Garment          string    `gorm:"column:garment;size:32;index"`
	Fabric           string    `gorm:"column:fabric;size:32"`
	Color            string    `gorm:"column:color;size:64"`
	Size             string    `gorm:"column:size;size:8"`
	OutputImage      string    `gorm:"column:output_image;size:255"`
	Confidence       float64   `gorm:"column:confidence"`
	ProcessingTimeMs int64     `gorm:"column:processing_time_ms"`
	ModelVersion     string    `gorm:"column:model_version;size:32"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (TryOnLog) TableName() string {
	return "tryon_logs"
}

// MetricsAggregation holds raw totals computed over stored logs.
type MetricsAggregation struct {
	TotalCount              int64
	AverageConfidence       float64
	AverageProcessingTimeMs float64
	GarmentCounts           map[string]int64
}

// Store is implemented by every try-on log backend.
type Store interface {
	SaveLog(ctx context.Context, log *TryOnLog) error
	FindByRequestID(ctx context.Context, requestID string) (*TryOnLog, error)
	AggregateMetrics(ctx context.Context) (*MetricsAggregation, error)
}
