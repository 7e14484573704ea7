package tryon

// ModelVersion is reported by the mock generator.
const ModelVersion = "v2.1.0"

// Result is the outcome of a single try-on. It is built per request.
type Result struct {
	OutputImage      string         `json:"outputImage"`
	Confidence       float64        `json:"confidence"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
	ModelVersion     string         `json:"modelVersion"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}
