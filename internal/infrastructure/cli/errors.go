package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/agentforge/pkg/application"
	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/lifecycle"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// Exit codes other than the generic failure.
const (
	ExitGateFailed = 2
	ExitLintFailed = 3
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors and errors that already are CLIErrors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var schemaErr *spec.SchemaError
	if errors.As(err, &schemaErr) {
		return NewCLIError("specification file is malformed", "Fix the listed fields in .agentforge/spec.yaml", err)
	}

	var incomplete *spec.IncompleteError
	if errors.As(err, &incomplete) {
		return &CLIError{
			Message:  incomplete.Error(),
			Hint:     "Run 'agentforge completeness' to see missing fields",
			ExitCode: 1,
		}
	}

	switch {
	case errors.Is(err, spec.ErrNotFound):
		return NewCLIError("no specification found", "Run 'agentforge init' to create a workspace", nil)
	case errors.Is(err, spec.ErrSpecIncomplete):
		return NewCLIError("spec incomplete", "Run 'agentforge completeness' to see missing fields", err)
	case errors.Is(err, application.ErrGateFailed):
		return &CLIError{Message: "publish gate failed", Hint: "Run 'agentforge gate' to see failing checks", Err: err, ExitCode: ExitGateFailed}
	case errors.Is(err, application.ErrStaleBuild):
		return NewCLIError("compiled package is out of date", "Run 'agentforge compile' first", err)
	case errors.Is(err, lifecycle.ErrTransitionNotAllowed):
		return NewCLIError("lifecycle transition not allowed", "Run 'agentforge lifecycle' to see the current state", err)
	case errors.Is(err, application.ErrInvalidAIResponse):
		return NewCLIError("the AI provider returned an unusable answer", "Retry, or pick a stronger model with AGENTFORGE_AI_MODEL", err)
	case errors.Is(err, capability.ErrUnknownCapability):
		return NewCLIError("unknown capability", "Run 'agentforge capabilities recommend' to list capability names", err)
	}

	return err
}
