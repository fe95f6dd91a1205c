// Package textview implements the windowed transcript view model: an
// ordered token list of arbitrary length partitioned into fixed-size chunks,
// with per-chunk lazy-render decisions driven by proximity to a scrollable
// viewport.
//
// The package is deliberately free of any rendering mechanism. The UI layer
// feeds scroll geometry in via Update and measured chunk heights via
// Measure; the Windower answers "should this chunk be live right now" and
// keeps the total scroll extent stable while chunks toggle between rendered
// and placeholder form.
package textview
