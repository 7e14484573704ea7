// Package camera models the kiosk's capture device: a media source, a
// toggle-driven state machine and a periodic pose/quality sampler.
package camera

import (
	"context"
	"errors"
	"image"
)

// State is the lifecycle position of a Controller.
type State string

const (
	StateInactive   State = "inactive"
	StateRequesting State = "requesting"
	StateActive     State = "active"
	StateError      State = "error"
)

// Constraints describe the requested video format.
type Constraints struct {
	Width        int
	Height       int
	MinWidth     int
	MinHeight    int
	FrameRate    float64
	MinFrameRate float64
	FacingMode   string
}

// DefaultConstraints asks for a front-facing 720p stream.
func DefaultConstraints() Constraints {
	return Constraints{
		Width:        1280,
		Height:       720,
		MinWidth:     640,
		MinHeight:    480,
		FrameRate:    30,
		MinFrameRate: 15,
		FacingMode:   "user",
	}
}

// Track is a single media track of an open stream.
type Track interface {
	Stop()
}

// Stream is an open media stream.
type Stream interface {
	Tracks() []Track
	Frame() (image.Image, error)
}

// Source grants access to a capture device.
type Source interface {
	Open(ctx context.Context, constraints Constraints) (Stream, error)
}

var (
	ErrPermissionDenied       = errors.New("camera permission denied")
	ErrDeviceNotFound         = errors.New("camera device not found")
	ErrDeviceBusy             = errors.New("camera device busy")
	ErrConstraintsUnsupported = errors.New("camera constraints unsupported")

	ErrNotActive         = errors.New("camera is not active")
	ErrPoseNotReady      = errors.New("pose is not ready for capture")
	ErrRequestInProgress = errors.New("camera access request already in progress")
	ErrTrackEnded        = errors.New("media track ended")
)

// ErrorMessage returns the user-facing message for a media access failure.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Camera access denied. Please allow camera access."
	case errors.Is(err, ErrDeviceNotFound):
		return "No camera found."
	case errors.Is(err, ErrDeviceBusy):
		return "Camera is in use by another application."
	case errors.Is(err, ErrConstraintsUnsupported):
		return "Camera configuration is not supported."
	default:
		return "An error occurred while accessing the camera."
	}
}
