package response

import (
	"context"
	"fmt"
	"time"
)

// Operation is the work measured by WithTiming.
type Operation func(ctx context.Context) (any, error)

// Factory wraps an operation result into a Response.
type Factory func(result any) *Response

// DefaultFactory wraps a result in a success response. Map results become
// the data; any other non-nil result is stored under data.result.
func DefaultFactory(result any) *Response {
	switch v := result.(type) {
	case nil:
		return Success("Operation completed", nil)
	case map[string]any:
		return Success("Operation completed", v)
	default:
		return Success("Operation completed", map[string]any{"result": v})
	}
}

// WithTiming runs op and records its wall-clock duration in milliseconds
// as metadata.duration. A returned *Response is used directly. A failure
// or panic yields an error response carrying the failure text in
// data.error.
func WithTiming(ctx context.Context, op Operation, factory Factory) (r *Response) {
	if factory == nil {
		factory = DefaultFactory
	}
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			r = Error("Operation failed", fmt.Errorf("panic: %v", p))
		}
		if r == nil {
			r = DefaultFactory(nil)
		}
		r.AddMetadata("duration", time.Since(start).Milliseconds())
	}()

	result, err := op(ctx)
	if err != nil {
		return Error("Operation failed", err)
	}
	if resp, ok := result.(*Response); ok {
		if resp != nil {
			return resp
		}
		result = nil
	}
	return factory(result)
}
