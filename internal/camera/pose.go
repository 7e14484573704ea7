package camera

import "time"

// PoseStatus is the simulated body pose reading.
type PoseStatus string

const (
	PoseGood    PoseStatus = "good-pose"
	PosePartial PoseStatus = "partial-pose"
	PoseNone    PoseStatus = "no-pose"
)

// Quality is the simulated frame quality reading.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
	QualityUnknown   Quality = "unknown"
)

var (
	samplePoses     = []PoseStatus{PoseGood, PosePartial, PoseNone}
	sampleQualities = []Quality{QualityExcellent, QualityGood, QualityFair, QualityPoor}
)

// PoseSample is emitted once per sampler tick.
type PoseSample struct {
	Status     PoseStatus `json:"status"`
	Confidence float64    `json:"confidence"`
	Quality    Quality    `json:"quality"`
	Timestamp  time.Time  `json:"timestamp"`
}
