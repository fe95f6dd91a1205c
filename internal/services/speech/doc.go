// Package speech is the HTTP client for the remote speech service: import
// transcription, WhisperX alignment, replacement synthesis, final apply, and
// the best-effort helpers (duration probe, throughput stats, voice lists).
//
// The orchestrator treats every operation here as a black box identified by
// its inputs and outputs. Failures are wrapped with the services sentinel
// taxonomy so callers classify without parsing messages; best-effort calls
// wrap ErrUnavailable and degrade instead of surfacing.
package speech
