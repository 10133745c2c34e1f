package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/atlas-api/internal/generation"
)

// GenerationClient implements generation.Client for testing.
type GenerationClient struct {
	// InitializeFn allows test cases to mock the Initialize behavior.
	InitializeFn func(ctx context.Context, subjectID string) (*generation.InitializationResult, error)

	// StatusFn allows test cases to mock the Status behavior.
	StatusFn func(ctx context.Context, subjectID string) (*generation.StatusReport, error)

	// Default responses used when the corresponding function is not set.
	InitResult *generation.InitializationResult
	InitErr    error
	Report     *generation.StatusReport
	StatusErr  error

	mu              sync.Mutex
	initializeCalls []string
	statusCalls     []string
}

// Interface compliance check
var _ generation.Client = (*GenerationClient)(nil)

// Initialize implements generation.Client.
func (m *GenerationClient) Initialize(
	ctx context.Context,
	subjectID string,
) (*generation.InitializationResult, error) {
	m.mu.Lock()
	m.initializeCalls = append(m.initializeCalls, subjectID)
	m.mu.Unlock()

	if m.InitializeFn != nil {
		return m.InitializeFn(ctx, subjectID)
	}
	if m.InitErr != nil {
		return nil, m.InitErr
	}
	if m.InitResult != nil {
		return m.InitResult, nil
	}
	return &generation.InitializationResult{Status: generation.InitStatusStarted}, nil
}

// Status implements generation.Client.
func (m *GenerationClient) Status(
	ctx context.Context,
	subjectID string,
) (*generation.StatusReport, error) {
	m.mu.Lock()
	m.statusCalls = append(m.statusCalls, subjectID)
	m.mu.Unlock()

	if m.StatusFn != nil {
		return m.StatusFn(ctx, subjectID)
	}
	if m.StatusErr != nil {
		return nil, m.StatusErr
	}
	if m.Report != nil {
		return m.Report, nil
	}
	return &generation.StatusReport{IsGenerating: true}, nil
}

// InitializeCalls returns the subject ids passed to Initialize, in call
// order.
func (m *GenerationClient) InitializeCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.initializeCalls))
	copy(out, m.initializeCalls)
	return out
}

// StatusCalls returns the subject ids passed to Status, in call order.
func (m *GenerationClient) StatusCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.statusCalls))
	copy(out, m.statusCalls)
	return out
}

// StatusCallCount returns how many times Status was called.
func (m *GenerationClient) StatusCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.statusCalls)
}
