package camera

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fatkhan05/ai-try-on/internal/tryon"
)

const (
	defaultSampleInterval = time.Second
	captureQuality        = 90
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Capture is a still frame taken from an active stream.
type Capture struct {
	ImageData  string     `json:"imageData"`
	Resolution Resolution `json:"resolution"`
	PoseStatus PoseStatus `json:"poseStatus"`
	Quality    Quality    `json:"quality"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval overrides the sampler period.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithOnSample registers a callback invoked from the sampler goroutine.
// The callback must not call Stop or Toggle.
func WithOnSample(fn func(PoseSample)) Option {
	return func(c *Controller) { c.onSample = fn }
}

// WithConstraints overrides DefaultConstraints.
func WithConstraints(constraints Constraints) Option {
	return func(c *Controller) { c.constraints = constraints }
}

// WithRand injects the sampler's random source.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger.Named("camera") }
}

// Controller owns a Source, the open stream and the sampler goroutine.
type Controller struct {
	source      Source
	constraints Constraints
	interval    time.Duration
	onSample    func(PoseSample)
	logger      *zap.Logger
	now         func() time.Time

	mu          sync.Mutex
	rng         *rand.Rand
	state       State
	stream      Stream
	lastErr     error
	pose        PoseStatus
	quality     Quality
	stopSampler chan struct{}
	samplerDone chan struct{}
}

func NewController(source Source, opts ...Option) *Controller {
	c := &Controller{
		source:      source,
		constraints: DefaultConstraints(),
		interval:    defaultSampleInterval,
		logger:      zap.NewNop(),
		now:         time.Now,
		state:       StateInactive,
		pose:        PoseNone,
		quality:     QualityUnknown,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure that moved the controller into StateError.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Reading returns the latest pose status and quality.
func (c *Controller) Reading() (PoseStatus, Quality) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose, c.quality
}

// Toggle starts the camera when it is off or failed and stops it when active.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.State() == StateActive {
		c.Stop()
		return nil
	}
	return c.Start(ctx)
}

// Start requests the media stream and launches the sampler.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateActive:
		c.mu.Unlock()
		return nil
	case StateRequesting:
		c.mu.Unlock()
		return ErrRequestInProgress
	}
	c.state = StateRequesting
	c.lastErr = nil
	c.mu.Unlock()

	stream, err := c.source.Open(ctx, c.constraints)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRequesting {
		// Stopped while the request was pending.
		if err == nil {
			stopTracks(stream)
		}
		return ErrNotActive
	}
	if err != nil {
		c.state = StateError
		c.lastErr = err
		c.logger.Warn("camera access failed", zap.Error(err), zap.String("message", ErrorMessage(err)))
		return err
	}

	c.stream = stream
	c.state = StateActive
	c.stopSampler = make(chan struct{})
	c.samplerDone = make(chan struct{})
	go c.sample(c.stopSampler, c.samplerDone)

	c.logger.Info("camera started", zap.Duration("sample_interval", c.interval))
	return nil
}

// Stop ends every media track and halts the sampler. No OnSample callback
// runs after Stop returns.
func (c *Controller) Stop() {
	c.mu.Lock()
	stream := c.stream
	done := c.samplerDone
	if c.stopSampler != nil {
		close(c.stopSampler)
	}
	c.stream = nil
	c.stopSampler = nil
	c.samplerDone = nil
	c.state = StateInactive
	c.lastErr = nil
	c.pose = PoseNone
	c.quality = QualityUnknown
	c.mu.Unlock()

	if done != nil {
		<-done
	}
	if stream != nil {
		stopTracks(stream)
		c.logger.Info("camera stopped")
	}
}

// Capture encodes the current frame as a JPEG data URL.
func (c *Controller) Capture() (*Capture, error) {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return nil, ErrNotActive
	}
	if c.pose != PoseGood {
		c.mu.Unlock()
		return nil, ErrPoseNotReady
	}
	stream, pose, quality := c.stream, c.pose, c.quality
	c.mu.Unlock()

	frame, err := stream.Frame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: captureQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	bounds := frame.Bounds()
	return &Capture{
		ImageData:  tryon.EncodeDataURL("image/jpeg", buf.Bytes()),
		Resolution: Resolution{Width: bounds.Dx(), Height: bounds.Dy()},
		PoseStatus: pose,
		Quality:    quality,
		Timestamp:  c.now(),
	}, nil
}

func (c *Controller) sample(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		select {
		case <-stop:
			c.mu.Unlock()
			return
		default:
		}
		s := PoseSample{
			Status:     samplePoses[c.rng.Intn(len(samplePoses))],
			Confidence: 0.5 + c.rng.Float64()*0.5,
			Quality:    sampleQualities[c.rng.Intn(len(sampleQualities))],
			Timestamp:  c.now(),
		}
		c.pose = s.Status
		c.quality = s.Quality
		c.mu.Unlock()

		if c.onSample != nil {
			c.onSample(s)
		}
	}
}

func stopTracks(stream Stream) {
	for _, track := range stream.Tracks() {
		track.Stop()
	}
}
