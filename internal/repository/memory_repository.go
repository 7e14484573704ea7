package repository

import (
	"context"
	"sync"
)

// MemoryTryOnRepository keeps logs in process memory. It is used when no
// database is configured; contents are lost on restart.
type MemoryTryOnRepository struct {
	mu     sync.RWMutex
	logs   map[string]*TryOnLog
	nextID uint
}

// NewMemoryTryOnRepository creates an empty in-memory store.
func NewMemoryTryOnRepository() *MemoryTryOnRepository {
	return &MemoryTryOnRepository{logs: make(map[string]*TryOnLog)}
}

func (r *MemoryTryOnRepository) SaveLog(ctx context.Context, log *TryOnLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *log
	stored.ID = r.nextID
	r.logs[log.RequestID] = &stored
	log.ID = stored.ID
	return nil
}

func (r *MemoryTryOnRepository) FindByRequestID(ctx context.Context, requestID string) (*TryOnLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := r.logs[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	found := *log
	return &found, nil
}

func (r *MemoryTryOnRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agg := &MetricsAggregation{GarmentCounts: make(map[string]int64)}
	var confidenceSum float64
	var latencySum int64
	for _, log := range r.logs {
		agg.TotalCount++
		confidenceSum += log.Confidence
		latencySum += log.ProcessingTimeMs
		agg.GarmentCounts[log.Garment]++
	}
	if agg.TotalCount > 0 {
		agg.AverageConfidence = confidenceSum / float64(agg.TotalCount)
		agg.AverageProcessingTimeMs = float64(latencySum) / float64(agg.TotalCount)
	}
	return agg, nil
}
