// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of the interfaces the tracker
// and API layers depend on, so tests across packages share one set of
// doubles instead of redefining inline mocks.
//
// Each mock follows the same pattern: a struct with an optional function
// field per interface method, default return values for when no function is
// set, and mutex-guarded call tracking for verification in concurrent
// tests.
//
// Usage:
//
//	import "github.com/phrazzld/atlas-api/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    client := &mocks.GenerationClient{
//	        StatusFn: func(ctx context.Context, subjectID string) (*generation.StatusReport, error) {
//	            return &generation.StatusReport{IsGenerating: true}, nil
//	        },
//	    }
//
//	    // Use the mock in your test...
//	}
package mocks
