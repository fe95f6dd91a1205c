// Package services defines the shared contract between the workflow
// orchestrator and the external speech operations it consumes.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, operation names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so remote failures carry
//     a classification down to the orchestrator boundary, where they are
//     normalized into a single user-visible error message.
//
// Concrete clients live in subpackages (speech). Use these helpers when
// wiring new operations so error handling and observability stay uniform
// across the workflow.
package services
