package analytics

import (
	"context"
	"sync"
)

var _ Service = (*MockAnalytics)(nil)

// MockAnalytics is an in-memory Service implementation for testing.
type MockAnalytics struct {
	mu     sync.Mutex
	Events []OperationEvent
}

// NewMockAnalytics creates a new mock analytics instance.
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{}
}

// RecordOperation captures the event in memory.
func (m *MockAnalytics) RecordOperation(ctx context.Context, ev OperationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}
