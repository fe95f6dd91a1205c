package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTranscription marks an unreachable or unsupported import source.
	ErrTranscription = errors.New("transcription error")
	// ErrAlignment marks a failed full or region alignment call.
	ErrAlignment = errors.New("alignment error")
	// ErrReplace marks a failed replace-preview render.
	ErrReplace = errors.New("replace error")
	// ErrApply marks a failed final apply.
	ErrApply = errors.New("apply error")
	// ErrValidation marks inputs rejected before reaching the remote side.
	ErrValidation = errors.New("validation error")
	// ErrStale marks a response for a job that is no longer current. Stale
	// results are discarded, never surfaced.
	ErrStale = errors.New("stale result")
	// ErrUnavailable marks best-effort operations (stats, voices, duration
	// probes) that degrade silently when they fail.
	ErrUnavailable = errors.New("service unavailable")
)

// Wrap builds an error that includes operation context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsStale reports whether err represents a discarded late result.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// Degradable reports whether err comes from a best-effort operation whose
// failure must not surface as a session error.
func Degradable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// UserMessage normalizes a remote failure into the single human-readable
// line shown next to the status display. A nil or empty error yields a
// generic fallback so the error banner is never blank.
func UserMessage(err error) string {
	if err == nil {
		return "Operation failed"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "Operation failed"
	}
	return msg
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
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
