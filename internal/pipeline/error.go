package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/levi616boop/AI-content-gen/internal/config"
)

// ErrorKind classifies a stage failure for the driver's retry decision.
type ErrorKind string

const (
	// KindConfig is a missing or invalid configuration key. Fatal, never retried.
	KindConfig ErrorKind = "configuration"
	// KindArtifact is a missing or empty upstream artifact. Terminal for the job.
	KindArtifact ErrorKind = "artifact_missing"
	// KindTimeout is a stage attempt exceeding its configured timeout_seconds. Retried.
	KindTimeout ErrorKind = "timeout"
	// KindTransient is a recoverable service error (network, 5xx, rate limit). Retried.
	KindTransient ErrorKind = "transient"
	// KindPermanent is an unrecoverable stage failure. Terminal for the job.
	KindPermanent ErrorKind = "stage_failure"
)

// StageError is the typed failure every adapter reports. The driver never
// inspects error strings; only Kind drives retry-or-halt.
type StageError struct {
	Stage   string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Stage, e.Message, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Stage, e.Message, e.Kind)
}

func (e *StageError) Unwrap() error { return e.Err }

// Retryable reports whether the driver may re-attempt the stage.
func (e *StageError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindTransient
}

func NewStageError(stage string, kind ErrorKind, message string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: message, Err: err}
}

// Classify wraps an arbitrary adapter error into a StageError, mapping
// configuration and context errors to their kinds. Adapters that already
// return a StageError pass through with the stage name filled in.
func Classify(stage string, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		if se.Stage == "" {
			se.Stage = stage
		}
		return se
	}
	switch {
	case errors.Is(err, config.ErrConfiguration):
		return NewStageError(stage, KindConfig, "invalid stage configuration", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewStageError(stage, KindTimeout, "stage timed out", err)
	default:
		return NewStageError(stage, KindPermanent, "stage failed", err)
	}
}
