// Package language normalizes the language codes reported by transcription
// backends and renders display names for status output.
package language
