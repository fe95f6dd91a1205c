// Package prefs persists editor preferences between sessions.
//
// Preferences cover voice selection (mode, named voice, favorite) and the
// replace timing knobs. They are read once at session start and written
// through whenever the session changes one of them, so a crash never loses
// more than the in-flight change.
package prefs
