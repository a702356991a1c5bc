package pr

import (
	"context"
	"sync/atomic"
)

// MockProvider is a mock implementation of Provider for testing.
type MockProvider struct {
	GetPRFunc   func(ctx context.Context, id int) (*PullRequest, error)
	ListPRsFunc func(ctx context.Context, filter Filter) ([]*PullRequest, error)

	listCalls atomic.Int32
}

// GetPR implements Provider.
func (m *MockProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	if m.GetPRFunc != nil {
		return m.GetPRFunc(ctx, id)
	}
	return &PullRequest{ID: id}, nil
}

// ListPRs implements Provider.
func (m *MockProvider) ListPRs(ctx context.Context, filter Filter) ([]*PullRequest, error) {
	m.listCalls.Add(1)
	if m.ListPRsFunc != nil {
		return m.ListPRsFunc(ctx, filter)
	}
	return []*PullRequest{}, nil
}

// ListCalls returns how many times ListPRs was called.
func (m *MockProvider) ListCalls() int {
	return int(m.listCalls.Load())
}
