// Package inflight marks which sessions have a try-on outstanding so that
// requests from the same session are serialized while other sessions run
// in parallel.
package inflight

import (
	"context"
	"errors"
)

// ErrBusy is returned when the session already has a request in flight.
var ErrBusy = errors.New("a try-on is already processing for this session")

// Guard admits at most one in-flight operation per key.
type Guard interface {
	// Acquire marks key as busy. The returned release func must be called
	// once the operation finishes. ErrBusy is returned if key is taken.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
