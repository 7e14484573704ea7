// Package client wraps the try-on endpoint for kiosk front ends.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fatkhan05/ai-try-on/internal/auth"
	"github.com/fatkhan05/ai-try-on/internal/tryon"
)

// DefaultEndpoint is the try-on route of a locally running API.
const DefaultEndpoint = "http://localhost:8080/api/ai-tryon"

var (
	// ErrBusy is returned while the engine already has a call in flight.
	ErrBusy = errors.New("engine is already processing another request")
	// ErrMissingInput is returned when image data or the garment selection is absent.
	ErrMissingInput = errors.New("image data and garment configuration are required")
)

// APIError is a non-2xx answer from the endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Metadata describes a successful try-on.
type Metadata struct {
	ProcessingTime int64               `json:"processingTime"`
	Confidence     float64             `json:"confidence"`
	ModelVersion   string              `json:"modelVersion"`
	GarmentConfig  tryon.GarmentConfig `json:"garmentConfig"`
}

// Result is what the UI renders. Failures are reported through Success,
// Error and Err rather than a returned error.
type Result struct {
	Success       bool      `json:"success"`
	RequestID     string    `json:"requestId,omitempty"`
	OriginalImage string    `json:"originalImage"`
	TryOnImage    string    `json:"tryOnResult,omitempty"`
	Metadata      *Metadata `json:"metadata,omitempty"`
	Error         string    `json:"error,omitempty"`
	Err           error     `json:"-"`
}

type payload struct {
	tryon.Request
	Timestamp int64 `json:"timestamp"`
}

// Option configures an Engine.
type Option func(*Engine)

func WithEndpoint(endpoint string) Option {
	return func(e *Engine) { e.endpoint = endpoint }
}

func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.httpClient = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger.Named("tryon_client") }
}

// WithSessionID sends the id in the session header.
func WithSessionID(id string) Option {
	return func(e *Engine) { e.sessionID = id }
}

// WithToken sends a bearer token for deployments that require JWT sessions.
func WithToken(token string) Option {
	return func(e *Engine) { e.token = token }
}

// Engine runs at most one try-on call at a time.
type Engine struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	sessionID  string
	token      string
	poseDelay  time.Duration
	now        func() time.Time

	processing atomic.Bool
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
		poseDelay:  defaultPoseDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Processing reports whether a call is in flight.
func (e *Engine) Processing() bool {
	return e.processing.Load()
}

// Process resizes the captured frame, submits it and shapes the answer.
func (e *Engine) Process(ctx context.Context, imageData string, cfg tryon.GarmentConfig) *Result {
	if !e.processing.CompareAndSwap(false, true) {
		return failure(imageData, ErrBusy)
	}
	defer e.processing.Store(false)

	if imageData == "" || !cfg.Complete() {
		return failure(imageData, ErrMissingInput)
	}

	processed, err := Preprocess(imageData)
	if err != nil {
		e.logger.Warn("preprocess failed", zap.Error(err))
		return failure(imageData, err)
	}

	body := payload{
		Request: tryon.Request{
			Image:   processed,
			Garment: cfg.Garment,
			Fabric:  cfg.Fabric,
			Color:   cfg.Color,
			Size:    cfg.Size,
		},
		Timestamp: e.now().UnixMilli(),
	}

	resp, err := e.submit(ctx, body)
	if err != nil {
		e.logger.Warn("try-on call failed", zap.Error(err), zap.String("garment", string(cfg.Garment)))
		return failure(imageData, err)
	}

	data := resp.Data
	return &Result{
		Success:       true,
		RequestID:     data.RequestID,
		OriginalImage: imageData,
		TryOnImage:    data.ProcessedImage,
		Metadata: &Metadata{
			ProcessingTime: data.Metadata.ProcessingTime,
			Confidence:     data.Metadata.Confidence,
			ModelVersion:   data.Metadata.ModelVersion,
			GarmentConfig:  cfg,
		},
	}
}

func (e *Engine) submit(ctx context.Context, body payload) (*tryon.SuccessResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.sessionID != "" {
		req.Header.Set(auth.SessionHeader, e.sessionID)
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call try-on endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr tryon.ErrorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out tryon.SuccessResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		return nil, errors.New("endpoint reported failure")
	}
	return &out, nil
}

func failure(imageData string, err error) *Result {
	return &Result{
		Success:       false,
		OriginalImage: imageData,
		Error:         err.Error(),
		Err:           err,
	}
}
