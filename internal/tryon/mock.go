package tryon

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	defaultConfidence = 0.80
	confidenceNoise   = 0.05
)

// confidenceTable holds the base confidence per garment-fabric pairing.
var confidenceTable = map[string]float64{
	"dress-silk":    0.95,
	"dress-cotton":  0.88,
	"blouse-silk":   0.92,
	"blouse-cotton": 0.90,
	"pants-denim":   0.94,
	"pants-cotton":  0.87,
	"skirt-velvet":  0.89,
	"skirt-linen":   0.85,
}

// BaseConfidence returns the table confidence for a garment and fabric.
func BaseConfidence(garment Garment, fabric Fabric) float64 {
	if c, ok := confidenceTable[fmt.Sprintf("%s-%s", garment, fabric)]; ok {
		return c
	}
	return defaultConfidence
}

// PlaceholderImages are the stock assets the mock generator picks from.
func PlaceholderImages() []string {
	return []string{
		"/images/tryon-result-1.jpg",
		"/images/tryon-result-2.jpg",
		"/images/tryon-result-3.jpg",
		"/images/tryon-result-4.jpg",
	}
}

// MockConfig tunes the simulated latency of MockGenerator.
type MockConfig struct {
	PreprocessDelay time.Duration
	ProcessingDelay time.Duration
	Jitter          time.Duration
	ModelVersion    string
	Images          []string
}

// DefaultMockConfig mirrors the latency of the hosted demo.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		PreprocessDelay: 500 * time.Millisecond,
		ProcessingDelay: 3 * time.Second,
		Jitter:          500 * time.Millisecond,
		ModelVersion:    ModelVersion,
		Images:          PlaceholderImages(),
	}
}

// MockGenerator fabricates results from a static table and a random stock
// image. The input image is never inspected.
type MockGenerator struct {
	cfg   MockConfig
	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// MockOption customises a MockGenerator.
type MockOption func(*MockGenerator)

// WithRand replaces the random source.
func WithRand(rng *rand.Rand) MockOption {
	return func(g *MockGenerator) {
		g.rng = rng
	}
}

// WithSleeper replaces the delay function, mostly for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) MockOption {
	return func(g *MockGenerator) {
		g.sleep = sleep
	}
}

// NewMockGenerator constructs a generator. Zero fields in cfg fall back to
// DefaultMockConfig, except delays which may legitimately be zero.
func NewMockGenerator(cfg MockConfig, opts ...MockOption) *MockGenerator {
	defaults := DefaultMockConfig()
	if cfg.ModelVersion == "" {
		cfg.ModelVersion = defaults.ModelVersion
	}
	if len(cfg.Images) == 0 {
		cfg.Images = defaults.Images
	}

	g := &MockGenerator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate simulates preprocessing and inference, then returns a canned result.
func (g *MockGenerator) Generate(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("mock generator: nil request")
	}

	if err := g.sleep(ctx, g.cfg.PreprocessDelay); err != nil {
		return nil, fmt.Errorf("preprocess image: %w", err)
	}

	delay, confidence, image := g.draw(req)
	if err := g.sleep(ctx, delay); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}

	return &Result{
		OutputImage:      image,
		Confidence:       confidence,
		ProcessingTimeMs: delay.Milliseconds(),
		ModelVersion:     g.cfg.ModelVersion,
		Metadata: map[string]any{
			"garmentDetected":   true,
			"poseConfidence":    0.92,
			"lightingQuality":   "good",
			"backgroundRemoved": true,
			"fabricTexture":     string(req.Fabric),
			"colorAccuracy":     0.94,
		},
	}, nil
}

// draw takes every random decision for one request under the lock;
// rand.Rand is not safe for concurrent use.
func (g *MockGenerator) draw(req *Request) (time.Duration, float64, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delay := g.cfg.ProcessingDelay
	if g.cfg.Jitter > 0 {
		delay += time.Duration(g.rng.Int63n(2*int64(g.cfg.Jitter)+1)) - g.cfg.Jitter
	}
	if delay < 0 {
		delay = 0
	}

	confidence := BaseConfidence(req.Garment, req.Fabric) + (g.rng.Float64()*2-1)*confidenceNoise
	confidence = math.Max(0, math.Min(1, confidence))
	confidence = math.Round(confidence*100) / 100

	image := g.cfg.Images[g.rng.Intn(len(g.cfg.Images))]
	return delay, confidence, image
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
