package tryon

import "context"

// ResultGenerator produces a try-on result for a validated request.
type ResultGenerator interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
}
