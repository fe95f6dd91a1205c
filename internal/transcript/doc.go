// Package transcript defines the word-timestamped transcript model shared by
// the editor state machine, the selection layer, and the windowed text view.
//
// Transcripts arrive wholesale from the speech service (never patched
// incrementally) and upstream aligners occasionally emit out-of-order or
// overlapping word timings. Clamped produces a copy safe for consumers that
// assume monotonic, non-negative times.
package transcript
