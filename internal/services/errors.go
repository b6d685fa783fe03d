package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStorage           = errors.New("storage error")
	ErrMalformedIdentity = errors.New("malformed identity")
	ErrTransient         = errors.New("transient failure")
	ErrFatal             = errors.New("fatal collaborator failure")
	ErrQuotaExceeded     = fmt.Errorf("quota exceeded: %w", ErrFatal)
	ErrContentIncomplete = errors.New("content incomplete")
	ErrInvalidTopicCode  = errors.New("invalid topic code")
	ErrConfiguration     = errors.New("configuration error")
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
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

// Disposition is the orchestrator response to a failed step.
type Disposition int

const (
	// DispositionSkipItem aborts the current item, notifies, and continues the batch.
	DispositionSkipItem Disposition = iota
	// DispositionRetry retries the step with backoff.
	DispositionRetry
	// DispositionSoftStop waits out a cooldown, discards the item and continues.
	DispositionSoftStop
	// DispositionCloseGate closes the channel's daily upload gate.
	DispositionCloseGate
	// DispositionHaltChannel stops work for the channel before any paid call.
	DispositionHaltChannel
)

func (d Disposition) String() string {
	switch d {
	case DispositionRetry:
		return "retry"
	case DispositionSoftStop:
		return "soft_stop"
	case DispositionCloseGate:
		return "close_gate"
	case DispositionHaltChannel:
		return "halt_channel"
	default:
		return "skip_item"
	}
}

// Classify maps an error to the response the batch loops should take.
func Classify(err error) Disposition {
	switch {
	case err == nil:
		return DispositionSkipItem
	case errors.Is(err, ErrQuotaExceeded):
		return DispositionCloseGate
	case errors.Is(err, ErrContentIncomplete):
		return DispositionSoftStop
	case errors.Is(err, ErrInvalidTopicCode):
		return DispositionHaltChannel
	case errors.Is(err, ErrFatal), errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return DispositionSkipItem
	case errors.Is(err, ErrTransient):
		return DispositionRetry
	default:
		return DispositionSkipItem
	}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return err != nil && Classify(err) == DispositionRetry
}

// IsFatal reports whether err is a collaborator failure that should be
// surfaced to the operator.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
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
