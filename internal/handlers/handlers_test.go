package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fatkhan05/ai-try-on/internal/auth"
	"github.com/fatkhan05/ai-try-on/internal/inflight"
	"github.com/fatkhan05/ai-try-on/internal/repository"
	"github.com/fatkhan05/ai-try-on/internal/tryon"
	"github.com/fatkhan05/ai-try-on/internal/usecase"
)

const examplePayload = `{"image":"data:image/png;base64,AAAA","garment":"dress","fabric":"silk","color":"Gold","size":"M"}`

type funcGenerator func(ctx context.Context, req *tryon.Request) (*tryon.Result, error)

func (f funcGenerator) Generate(ctx context.Context, req *tryon.Request) (*tryon.Result, error) {
	return f(ctx, req)
}

type countingGenerator struct {
	inner tryon.ResultGenerator
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, req *tryon.Request) (*tryon.Result, error) {
	g.calls++
	return g.inner.Generate(ctx, req)
}

func newTestRouter(gen tryon.ResultGenerator, opts usecase.Options) *gin.Engine {
	return newTestRouterWithLogger(gen, opts, zap.NewNop())
}

func newTestRouterWithLogger(gen tryon.ResultGenerator, opts usecase.Options, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)

	uc := usecase.NewTryOnUseCase(
		repository.NewMemoryTryOnRepository(),
		usecase.NewMemoryCache(),
		inflight.NewLocalGuard(),
		gen,
		logger,
		opts,
	)

	router := gin.New()
	router.Use(Recovery(logger))
	RegisterRoutes(router, uc, auth.SessionMiddleware("", ""), logger)
	return router
}

func instantMock() tryon.ResultGenerator {
	return tryon.NewMockGenerator(tryon.MockConfig{})
}

func postTryOn(router http.Handler, body, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ai-tryon", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(auth.SessionHeader, session)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) tryon.ErrorResponse {
	t.Helper()
	var body tryon.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", resp.Body.String(), err)
	}
	return body
}

func TestProcessRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{name: "empty body", body: "", reason: tryon.ReasonBodyRequired},
		{name: "null body", body: "null", reason: tryon.ReasonBodyRequired},
		{name: "malformed json", body: `{"image":`, reason: "Invalid JSON body"},
		{name: "missing image", body: `{"garment":"dress","fabric":"silk","color":"Gold"}`, reason: tryon.ReasonImageRequired},
		{name: "missing garment", body: `{"image":"data:image/png;base64,AAAA","fabric":"silk","color":"Gold"}`, reason: tryon.ReasonGarmentRequired},
		{name: "missing fabric", body: `{"image":"data:image/png;base64,AAAA","garment":"dress","color":"Gold"}`, reason: tryon.ReasonFabricRequired},
		{name: "missing color", body: `{"image":"data:image/png;base64,AAAA","garment":"dress","fabric":"silk"}`, reason: tryon.ReasonColorRequired},
		{name: "not an image data url", body: `{"image":"https://example.com/me.png","garment":"dress","fabric":"silk","color":"Gold"}`, reason: tryon.ReasonInvalidFormat},
		{name: "oversized image", body: `{"image":"data:image/png;base64,` + strings.Repeat("A", 400) + `","garment":"dress","fabric":"silk","color":"Gold"}`, reason: tryon.ReasonImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &countingGenerator{inner: instantMock()}
			router := newTestRouter(gen, usecase.Options{MaxImageBytes: 256})

			resp := postTryOn(router, tt.body, "kiosk-1")
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d (%s)", http.StatusBadRequest, resp.Code, resp.Body.String())
			}
			if got := decodeError(t, resp).Error; got != tt.reason {
				t.Fatalf("got reason %q, want %q", got, tt.reason)
			}
			if gen.calls != 0 {
				t.Fatalf("generator must not run for invalid payloads, ran %d times", gen.calls)
			}
		})
	}
}

func TestProcessRejectsBodyAboveTransportLimit(t *testing.T) {
	gen := &countingGenerator{inner: instantMock()}
	router := newTestRouter(gen, usecase.Options{MaxImageBytes: 100})

	body := `{"image":"data:image/png;base64,` + strings.Repeat("A", int(MaxBodySize(100))) + `"}`
	resp := postTryOn(router, body, "kiosk-1")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.Code)
	}
	if got := decodeError(t, resp).Error; got != tryon.ReasonImageTooLarge {
		t.Fatalf("got reason %q, want %q", got, tryon.ReasonImageTooLarge)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not run, ran %d times", gen.calls)
	}
}

func TestProcessOversizedImageKeepsReasonOrder(t *testing.T) {
	const maxImageBytes = 60000
	// Encoded image well past the ceiling but inside the transport limit.
	image := "data:image/jpeg;base64," + strings.Repeat("A", 2*maxImageBytes*4/3)

	tests := []struct {
		name   string
		body   map[string]string
		reason string
	}{
		{
			name:   "missing garment",
			body:   map[string]string{"image": image, "fabric": "silk", "color": "Gold"},
			reason: tryon.ReasonGarmentRequired,
		},
		{
			name:   "missing color",
			body:   map[string]string{"image": image, "garment": "dress", "fabric": "silk"},
			reason: tryon.ReasonColorRequired,
		},
		{
			name:   "complete selection",
			body:   map[string]string{"image": image, "garment": "dress", "fabric": "silk", "color": "Gold"},
			reason: tryon.ReasonImageTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(instantMock(), usecase.Options{MaxImageBytes: maxImageBytes})
			raw, err := json.Marshal(tt.body)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if int64(len(raw)) <= maxImageBytes*4/3+bodySlack {
				t.Fatalf("body of %d bytes does not exceed the encoded image ceiling", len(raw))
			}

			resp := postTryOn(router, string(raw), "kiosk-1")
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d (%s)", resp.Code, resp.Body.String())
			}
			if got := decodeError(t, resp).Error; got != tt.reason {
				t.Fatalf("got reason %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestProcessExamplePayload(t *testing.T) {
	router := newTestRouter(instantMock(), usecase.Options{})

	resp := postTryOn(router, examplePayload, "kiosk-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", resp.Code, resp.Body.String())
	}

	var body tryon.SuccessResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success to be true")
	}
	if body.Data.Metadata.ModelVersion != "v2.1.0" {
		t.Fatalf("unexpected model version %q", body.Data.Metadata.ModelVersion)
	}
	if c := body.Data.Metadata.Confidence; c < 0.90 || c > 1.0 {
		t.Fatalf("confidence %v outside 0.95 ± 0.05", c)
	}
	if !slices.Contains(tryon.PlaceholderImages(), body.Data.ProcessedImage) {
		t.Fatalf("processed image %q not in placeholder set", body.Data.ProcessedImage)
	}
	if body.Data.OriginalImage != "data:image/png;base64,AAAA" {
		t.Fatalf("expected original image to be echoed, got %q", body.Data.OriginalImage)
	}
	want := tryon.GarmentConfig{Garment: "dress", Fabric: "silk", Color: "Gold", Size: "M"}
	if body.Data.GarmentConfig != want {
		t.Fatalf("got garment config %+v, want %+v", body.Data.GarmentConfig, want)
	}
	if body.Data.RequestID == "" || body.Data.Metadata.Timestamp.IsZero() {
		t.Fatalf("expected request id and timestamp, got %+v", body.Data)
	}
}

func TestProcessRejectsConcurrentSameSession(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	gen := funcGenerator(func(ctx context.Context, req *tryon.Request) (*tryon.Result, error) {
		close(entered)
		<-release
		return &tryon.Result{OutputImage: "/images/tryon-result-1.jpg", Confidence: 0.9, ModelVersion: tryon.ModelVersion}, nil
	})
	router := newTestRouter(gen, usecase.Options{})

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- postTryOn(router, examplePayload, "kiosk-1")
	}()
	<-entered

	second := postTryOn(router, examplePayload, "kiosk-1")
	if second.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, second.Code)
	}
	if got := decodeError(t, second).Error; got != busyMessage {
		t.Fatalf("unexpected busy message %q", got)
	}

	close(release)
	if resp := <-first; resp.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", resp.Code)
	}
}

func TestProcessInternalError(t *testing.T) {
	gen := funcGenerator(func(ctx context.Context, req *tryon.Request) (*tryon.Result, error) {
		return nil, errors.New("model crashed")
	})
	router := newTestRouter(gen, usecase.Options{})

	resp := postTryOn(router, examplePayload, "kiosk-1")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if body.Error != "Internal server error" {
		t.Fatalf("unexpected error %q", body.Error)
	}
	if !strings.Contains(body.Message, "model crashed") {
		t.Fatalf("expected message to carry the cause, got %q", body.Message)
	}
	if body.Timestamp == nil {
		t.Fatal("expected timestamp on internal errors")
	}
}

func TestProcessInternalErrorLogsFailedOperation(t *testing.T) {
	gen := funcGenerator(func(ctx context.Context, req *tryon.Request) (*tryon.Result, error) {
		return nil, errors.New("model crashed")
	})
	core, logs := observer.New(zapcore.ErrorLevel)
	router := newTestRouterWithLogger(gen, usecase.Options{}, zap.New(core))

	if resp := postTryOn(router, examplePayload, "kiosk-1"); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}

	entries := logs.FilterMessage("try-on failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one handler error entry, got %d", len(entries))
	}
	if op := entries[0].ContextMap()["failed_operation"]; op != "usecase.generate" {
		t.Fatalf("unexpected failed operation %v", op)
	}
}

func TestProcessRecoversFromPanic(t *testing.T) {
	gen := funcGenerator(func(ctx context.Context, req *tryon.Request) (*tryon.Result, error) {
		panic("nil frame")
	})
	router := newTestRouter(gen, usecase.Options{})

	resp := postTryOn(router, examplePayload, "kiosk-1")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Message != "nil frame" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestCapabilities(t *testing.T) {
	router := newTestRouter(instantMock(), usecase.Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/ai-tryon", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body tryon.Capabilities
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "healthy" || body.Service != "AI Try-On API" || body.Version != "1.0.0" {
		t.Fatalf("unexpected identity %+v", body)
	}
	if body.Capabilities.MaxImageSize != 5*1024*1024 {
		t.Fatalf("unexpected max image size %d", body.Capabilities.MaxImageSize)
	}
	if body.Capabilities.OutputFormat != "image/jpeg" || len(body.Capabilities.SupportedFormats) != 3 {
		t.Fatalf("unexpected formats %+v", body.Capabilities)
	}
	if len(body.Capabilities.Garments) != 4 || len(body.Capabilities.Fabrics) != 6 || len(body.Capabilities.Sizes) != 6 {
		t.Fatalf("unexpected catalog %+v", body.Capabilities)
	}
}

func TestResultLookupAndMetrics(t *testing.T) {
	router := newTestRouter(instantMock(), usecase.Options{})

	resp := postTryOn(router, examplePayload, "kiosk-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var created tryon.SuccessResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	lookup := httptest.NewRecorder()
	router.ServeHTTP(lookup, httptest.NewRequest(http.MethodGet, "/api/ai-tryon/results/"+created.Data.RequestID, nil))
	if lookup.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", lookup.Code)
	}
	var outcome usecase.Outcome
	if err := json.Unmarshal(lookup.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("failed to decode outcome: %v", err)
	}
	if outcome.Result.OutputImage != created.Data.ProcessedImage {
		t.Fatalf("lookup returned %q, want %q", outcome.Result.OutputImage, created.Data.ProcessedImage)
	}
	if strings.Contains(lookup.Body.String(), "sessionId") || strings.Contains(lookup.Body.String(), "kiosk-1") {
		t.Fatalf("lookup must not expose the session identity: %s", lookup.Body.String())
	}

	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/ai-tryon/results/unknown", nil))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", missing.Code)
	}

	metrics := httptest.NewRecorder()
	router.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/api/ai-tryon/metrics", nil))
	if metrics.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", metrics.Code)
	}
	var summary usecase.MetricsSummary
	if err := json.NewDecoder(bytes.NewReader(metrics.Body.Bytes())).Decode(&summary); err != nil {
		t.Fatalf("failed to decode metrics: %v", err)
	}
	if summary.TotalRequests != 1 || summary.GarmentCounts["dress"] != 1 {
		t.Fatalf("unexpected metrics %+v", summary)
	}
}
