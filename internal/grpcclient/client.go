package grpcclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fatkhan05/ai-try-on/internal/logging"
	"github.com/fatkhan05/ai-try-on/internal/tryon"
)

// GenerateMethod is the full gRPC method name served by inference backends.
// Requests and responses are google.protobuf.Struct messages.
const GenerateMethod = "/tryon.v1.InferenceService/Generate"

// DialInference returns a ResultGenerator backed by a remote inference service.
func DialInference(ctx context.Context, addr string, logger *zap.Logger, opts ...grpc.DialOption) (tryon.ResultGenerator, *grpc.ClientConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	}, opts...)

	conn, err := grpc.DialContext(dialCtx, addr, dialOpts...)
	if err != nil {
		wrapped := logging.NewOperationError("grpcclient.dial_inference", "", err)
		logger.Error("failed to dial inference service", zap.Error(wrapped), zap.String("addr", addr))
		return nil, nil, wrapped
	}
	return NewGenerator(conn, logger), conn, nil
}

// NewGenerator wraps an existing connection.
func NewGenerator(conn grpc.ClientConnInterface, logger *zap.Logger) tryon.ResultGenerator {
	return &grpcGenerator{conn: conn, logger: logger.Named("grpc_generator")}
}

type grpcGenerator struct {
	conn   grpc.ClientConnInterface
	logger *zap.Logger
}

func (g *grpcGenerator) Generate(ctx context.Context, req *tryon.Request) (*tryon.Result, error) {
	in, err := structpb.NewStruct(map[string]interface{}{
		"image":   req.Image,
		"garment": string(req.Garment),
		"fabric":  string(req.Fabric),
		"color":   req.Color,
		"size":    string(req.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("encode inference request: %w", err)
	}

	out := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, GenerateMethod, in, out); err != nil {
		wrapped := logging.NewOperationError("grpcclient.generate", "", err)
		g.logger.Error("inference call failed", zap.Error(wrapped), zap.String("garment", string(req.Garment)))
		return nil, wrapped
	}

	return decodeResult(out)
}

func decodeResult(out *structpb.Struct) (*tryon.Result, error) {
	fields := out.GetFields()

	image := fields["outputImage"].GetStringValue()
	if image == "" {
		return nil, errors.New("inference response missing outputImage")
	}

	confidence := fields["confidence"].GetNumberValue()
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("inference confidence %v outside [0,1]", confidence)
	}

	result := &tryon.Result{
		OutputImage:      image,
		Confidence:       confidence,
		ProcessingTimeMs: int64(fields["processingTimeMs"].GetNumberValue()),
		ModelVersion:     fields["modelVersion"].GetStringValue(),
	}
	if md := fields["metadata"].GetStructValue(); md != nil {
		result.Metadata = md.AsMap()
	}
	return result, nil
}
