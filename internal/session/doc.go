// Package session hosts the editing workflow orchestrator. An Engine owns
// the single editor state, serializes mutations through Dispatch, runs the
// remote speech operations with queue logging and progress estimation, and
// broadcasts state, progress, and queue events to attached frontends.
package session
