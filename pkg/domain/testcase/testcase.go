// Package testcase defines behavioral test cases for an agent and the
// recorded outcome of running them.
package testcase

import (
	"context"
	"time"
)

// Case is one behavioral check for the agent.
type Case struct {
	ID               string    `json:"id"`
	Input            string    `json:"input"`
	ExpectedBehavior string    `json:"expected_behavior"`
	Tags             []string  `json:"tags,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Run records one execution of a test case.
type Run struct {
	ID         string    `json:"id"`
	TestCaseID string    `json:"test_case_id"`
	Passed     bool      `json:"passed"`
	Output     string    `json:"output,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Repository persists test cases and runs. Count and PassRate feed the
// publish gate.
type Repository interface {
	AddTestCase(ctx context.Context, tc *Case) error
	ListTestCases(ctx context.Context) ([]Case, error)
	DeleteTestCase(ctx context.Context, id string) error
	RecordRun(ctx context.Context, run *Run) error
	Count(ctx context.Context) (int, error)
	// PassRate is the percentage of cases whose latest run passed, or nil
	// when nothing has run.
	PassRate(ctx context.Context) (*float64, error)
}
