package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnprocessable = errors.New("unprocessable response")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrNoMatch       = errors.New("no match")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind groups errors by the recovery the user is offered.
type FailureKind string

const (
	// FailureInput covers missing sessions, unreadable captures, and invalid drafts.
	FailureInput FailureKind = "input"
	// FailureNoMatch means the metadata service had no confident candidate.
	FailureNoMatch FailureKind = "no_match"
	// FailureTransient covers service outages and storage errors worth retrying.
	FailureTransient FailureKind = "transient"
)

// Classify maps an error to the failure kind surfaced to the user.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureTransient
	case errors.Is(err, ErrNoMatch), errors.Is(err, ErrNotFound):
		return FailureNoMatch
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return FailureInput
	default:
		return FailureTransient
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
