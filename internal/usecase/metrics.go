package usecase

import "context"

// MetricsSummary represents aggregated try-on insights.
type MetricsSummary struct {
	TotalRequests           int64            `json:"totalRequests"`
	AverageConfidence       float64          `json:"averageConfidence"`
	AverageProcessingTimeMs float64          `json:"averageProcessingTimeMs"`
	GarmentCounts           map[string]int64 `json:"garmentCounts"`
}

// GetMetricsSummary aggregates try-on metrics from persisted logs.
func (uc *TryOnUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalRequests:           aggregation.TotalCount,
		AverageConfidence:       aggregation.AverageConfidence,
		AverageProcessingTimeMs: aggregation.AverageProcessingTimeMs,
		GarmentCounts:           aggregation.GarmentCounts,
	}
	if summary.GarmentCounts == nil {
		summary.GarmentCounts = map[string]int64{}
	}
	return summary, nil
}
