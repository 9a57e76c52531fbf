package port

import (
	"context"

	"phptdd/internal/domain"
)

// TestRunner runs the unit test bound to an entity.
type TestRunner interface {
	Run(ctx context.Context, info domain.TestFunctionInfo, coverage bool) error
}

// FailureSink receives the outcome of each test run, keyed by the document
// that declared the entity.
type FailureSink interface {
	Failed(uri string, info domain.TestFunctionInfo, err error)
	Passed(uri string, info domain.TestFunctionInfo)
}
