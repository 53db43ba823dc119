// Package llm wraps the model-calling collaborators behind one Caller contract.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// PromptParts is the fully budgeted material handed to the model for one turn.
type PromptParts struct {
	HelpData     string // reference passages, already trimmed to budget
	Conversation string // chat history, already trimmed to budget
	Question     string // the new human message
}

// Caller produces a completion for an assembled prompt. Implementations wrap
// failures in CollaboratorError; callers treat any such failure as turn-fatal.
type Caller interface {
	Complete(ctx context.Context, parts PromptParts) (string, error)
}

// CollaboratorError is a retrieval or model-call failure. Transient marks
// errors that a caller may reasonably retry on a later turn (rate limits,
// upstream flakiness); the orchestrator itself never retries.
type CollaboratorError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func collaboratorErr(op string, err error) error {
	return &CollaboratorError{Op: op, Transient: isTransient(err), Err: err}
}

// NewCollaboratorError wraps a failure from any external collaborator
// (retrieval, transcription) with the same taxonomy used for model calls.
func NewCollaboratorError(op string, err error) error {
	return collaboratorErr(op, err)
}

// isTransient classifies by error text since providers surface HTTP failures
// as opaque strings.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"429", "quota", "Quota exceeded", "timeout", "deadline", "500", "502", "503"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
