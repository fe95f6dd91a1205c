// Package logging builds the slog loggers used across the daemon and CLI.
//
// It provides a console handler with flattened key=value attrs, a JSON
// handler for machine consumption, attr helper aliases so call sites avoid
// importing log/slog directly, context-derived fields (job and request
// identifiers), progress log sampling, and log file retention cleanup.
package logging
