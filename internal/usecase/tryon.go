package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fatkhan05/ai-try-on/internal/inflight"
	"github.com/fatkhan05/ai-try-on/internal/logging"
	"github.com/fatkhan05/ai-try-on/internal/repository"
	"github.com/fatkhan05/ai-try-on/internal/tryon"
)

// Options tunes a TryOnUseCase. Zero values select defaults.
type Options struct {
	MaxImageBytes int64
	ResultTTL     time.Duration
}

// TryOnUseCase validates try-on requests, serializes them per session and
// asks the configured generator for a result.
type TryOnUseCase struct {
	repo           repository.Store
	cache          Cache
	guard          inflight.Guard
	generator      tryon.ResultGenerator
	logger         *zap.Logger
	maxImageBytes  int64
	resultTTL      time.Duration
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
}

// Outcome is a completed try-on as returned to the transport layer.
type Outcome struct {
	RequestID   string              `json:"requestId"`
	SessionID   string              `json:"sessionId,omitempty"`
	Config      tryon.GarmentConfig `json:"garmentConfig"`
	Result      *tryon.Result       `json:"result"`
	CompletedAt time.Time           `json:"completedAt"`
}

// NewTryOnUseCase constructs a new use case instance.
func NewTryOnUseCase(
	repo repository.Store,
	cache Cache,
	guard inflight.Guard,
	generator tryon.ResultGenerator,
	logger *zap.Logger,
	opts Options,
) *TryOnUseCase {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = tryon.DefaultMaxImageBytes
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = 5 * time.Minute
	}
	return &TryOnUseCase{
		repo:           repo,
		cache:          cache,
		guard:          guard,
		generator:      generator,
		logger:         logger.Named("tryon_usecase"),
		maxImageBytes:  opts.MaxImageBytes,
		resultTTL:      opts.ResultTTL,
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
		now:            time.Now,
	}
}

// MaxImageBytes reports the configured image ceiling.
func (uc *TryOnUseCase) MaxImageBytes() int64 {
	return uc.maxImageBytes
}

// Process runs one try-on for sessionID. Validation failures are returned
// as *tryon.ValidationError before the generator is reached; a concurrent
// request from the same session yields inflight.ErrBusy.
func (uc *TryOnUseCase) Process(ctx context.Context, sessionID string, req *tryon.Request) (*Outcome, error) {
	if err := tryon.Validate(req, uc.maxImageBytes); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	opLogger := logging.WithSession(logging.WithOperation(uc.logger, "usecase.process_tryon", requestID), sessionID)

	release, err := uc.guard.Acquire(ctx, sessionID)
	if err != nil {
		if errors.Is(err, inflight.ErrBusy) {
			opLogger.Info("rejected concurrent try-on")
			return nil, err
		}
		wrapped := logging.NewOperationError("usecase.acquire_session", requestID, err)
		opLogger.Error("failed to mark session in flight", zap.Error(wrapped))
		return nil, wrapped
	}
	defer release()

	opLogger.Info("try-on request",
		zap.String("garment", string(req.Garment)),
		zap.String("fabric", string(req.Fabric)),
		zap.String("color", req.Color),
		zap.String("size", string(req.Size)),
		zap.Bool("has_image", req.Image != ""),
	)

	result, err := uc.generator.Generate(ctx, req)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.generate", requestID, err)
		opLogger.Error("result generation failed", zap.Error(wrapped))
		return nil, wrapped
	}
	if result == nil {
		wrapped := logging.NewOperationError("usecase.generate", requestID, errors.New("generator returned no result"))
		opLogger.Error("result generation failed", zap.Error(wrapped))
		return nil, wrapped
	}

	outcome := &Outcome{
		RequestID:   requestID,
		SessionID:   sessionID,
		Config:      req.Config(),
		Result:      result,
		CompletedAt: uc.now().UTC(),
	}

	// The result is already produced; audit and cache failures only degrade lookups.
	if err := uc.repo.SaveLog(ctx, toLog(outcome)); err != nil {
		opLogger.Warn("failed to persist try-on log", zap.Error(err))
	}
	if err := uc.cacheOutcome(ctx, outcome); err != nil {
		opLogger.Warn("failed to cache try-on result", zap.Error(err))
	}

	opLogger.Info("try-on completed",
		zap.Float64("confidence", result.Confidence),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs),
		zap.String("output_image", result.OutputImage),
	)
	return outcome, nil
}

// GetResult retrieves a cached try-on outcome or loads it from the log store.
func (uc *TryOnUseCase) GetResult(ctx context.Context, requestID string) (*Outcome, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.get_result", requestID)

	cached, err := uc.withCacheGet(ctx, requestID, "cache.get.result", resultKey(requestID))
	if err == nil {
		var outcome Outcome
		if err := json.Unmarshal([]byte(cached), &outcome); err != nil {
			opLogger.Warn("failed to decode cached result", zap.Error(err))
		} else {
			return &outcome, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		opLogger.Warn("failed to read cache", zap.Error(err))
	}

	log, err := uc.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return fromLog(log), nil
}

func (uc *TryOnUseCase) cacheOutcome(ctx context.Context, outcome *Outcome) error {
	serialized, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("serialize outcome: %w", err)
	}
	return uc.withCacheRetry(ctx, outcome.RequestID, "cache.set.result", func() error {
		return uc.cache.Set(ctx, resultKey(outcome.RequestID), string(serialized), uc.resultTTL)
	})
}

func (uc *TryOnUseCase) withCacheRetry(ctx context.Context, requestID, operation string, fn func() error) error {
	if uc.retryAttempts <= 1 {
		return logging.NewOperationError(operation, requestID, fn())
	}

	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("cache operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == uc.retryAttempts-1 {
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient cache error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func (uc *TryOnUseCase) withCacheGet(ctx context.Context, requestID, operation, key string) (string, error) {
	var result string
	err := uc.withCacheRetry(ctx, requestID, operation, func() error {
		value, err := uc.cache.Get(ctx, key)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func resultKey(requestID string) string {
	return fmt.Sprintf("tryon:result:%s", requestID)
}

func toLog(o *Outcome) *repository.TryOnLog {
	return &repository.TryOnLog{
		RequestID:        o.RequestID,
		SessionID:        o.SessionID,
		Garment:          string(o.Config.Garment),
		Fabric:           string(o.Config.Fabric),
		Color:            o.Config.Color,
		Size:             string(o.Config.Size),
		OutputImage:      o.Result.OutputImage,
		Confidence:       o.Result.Confidence,
		ProcessingTimeMs: o.Result.ProcessingTimeMs,
		ModelVersion:     o.Result.ModelVersion,
		CreatedAt:        o.CompletedAt,
	}
}

func fromLog(log *repository.TryOnLog) *Outcome {
	return &Outcome{
		RequestID: log.RequestID,
		SessionID: log.SessionID,
		Config: tryon.GarmentConfig{
			Garment: tryon.Garment(log.Garment),
			Fabric:  tryon.Fabric(log.Fabric),
			Color:   log.Color,
			Size:    tryon.Size(log.Size),
		},
		Result: &tryon.Result{
			OutputImage:      log.OutputImage,
			Confidence:       log.Confidence,
			ProcessingTimeMs: log.ProcessingTimeMs,
			ModelVersion:     log.ModelVersion,
		},
		CompletedAt: log.CreatedAt,
	}
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
