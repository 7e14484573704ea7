package client

import (
	"context"
	"time"
)

const defaultPoseDelay = time.Second

// Point is a keypoint position on the 512x512 preprocessed frame.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Keypoints are the body landmarks used to anchor a garment.
type Keypoints struct {
	Shoulders Point `json:"shoulders"`
	Waist     Point `json:"waist"`
	Hips      Point `json:"hips"`
}

// PoseDetection is the outcome of DetectPose.
type PoseDetection struct {
	Success      bool      `json:"success"`
	PoseDetected bool      `json:"poseDetected"`
	Confidence   float64   `json:"confidence"`
	Keypoints    Keypoints `json:"keypoints"`
	Error        string    `json:"error,omitempty"`
}

// WithPoseDelay overrides the simulated pose detection latency.
func WithPoseDelay(d time.Duration) Option {
	return func(e *Engine) { e.poseDelay = d }
}

// DetectPose simulates body pose detection on a captured frame. The frame
// must decode; the keypoints are fixed.
func (e *Engine) DetectPose(ctx context.Context, imageData string) *PoseDetection {
	if _, err := decode(imageData); err != nil {
		return &PoseDetection{Error: err.Error()}
	}

	timer := time.NewTimer(e.poseDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return &PoseDetection{Error: ctx.Err().Error()}
	case <-timer.C:
	}

	return &PoseDetection{
		Success:      true,
		PoseDetected: true,
		Confidence:   0.89,
		Keypoints: Keypoints{
			Shoulders: Point{X: 256, Y: 180},
			Waist:     Point{X: 256, Y: 300},
			Hips:      Point{X: 256, Y: 380},
		},
	}
}
