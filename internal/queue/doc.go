// Package queue persists render jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and status transitions for every long-running speech operation
// the editor launches: transcription, alignment, replace previews, and
// final applies. Jobs capture progress, result URLs, and error text so the
// session and CLI can report history without additional state.
//
// The database is treated as transient storage for job history rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
