// Package selection converts pointer gestures over transcript tokens or over
// a timeline scrubber into one authoritative [start, end] interval in
// seconds. Both input modalities normalize through here so the editor state
// machine only ever sees well-formed selections.
package selection
