package app

import (
	"errors"
	"fmt"
)

// ErrorKind classifies recoverable outcomes so batch jobs can aggregate
// per-kind counts and callers can tell "feature disabled" from "transient
// failure" from "misconfiguration".
type ErrorKind string

const (
	KindDisabled         ErrorKind = "DISABLED"
	KindMissingRecipient ErrorKind = "MISSING_RECIPIENT"
	KindMisconfigured    ErrorKind = "MISCONFIGURED"
	KindTransient        ErrorKind = "TRANSIENT"
)

// KindError wraps an error with its classification.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *KindError) Unwrap() error { return e.Err }

// Kindf builds a classified error.
func Kindf(kind ErrorKind, format string, args ...interface{}) error {
	return &KindError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the classification of err, defaulting to transient for
// unclassified errors (the safe retry bucket).
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindTransient
}

// Application-level sentinel errors.
var (
	ErrInstanceCompleted     = errors.New("task instance is already completed")
	ErrInvalidTransition     = errors.New("invalid task status transition")
	ErrSubscriptionInactive  = errors.New("subscription is not active")
	ErrReminderNotSendable   = errors.New("reminder is not in a sendable state")
	ErrGenerationCapExceeded = errors.New("generation iteration cap reached")
)

// RunSummary aggregates one batch run. Batch jobs never abort on a single
// item; they count it here and keep going.
type RunSummary struct {
	Examined int
	Created  int
	Started  int
	Sent     int
	Failed   int
	Skipped  int
	Errors   int
}

// Add folds another summary into s.
func (s *RunSummary) Add(other RunSummary) {
	s.Examined += other.Examined
	s.Created += other.Created
	s.Started += other.Started
	s.Sent += other.Sent
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.Errors += other.Errors
}

func (s RunSummary) String() string {
	return fmt.Sprintf("examined=%d created=%d started=%d sent=%d failed=%d skipped=%d errors=%d",
		s.Examined, s.Created, s.Started, s.Sent, s.Failed, s.Skipped, s.Errors)
}
