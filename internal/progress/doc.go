// Package progress estimates completion of remote operations whose true
// completion is only known via final callback. Given the media duration and
// a historical real-time factor for the operation kind, it projects total
// wall-clock time and ticks out a smoothly increasing percentage until
// cancelled, a safety timeout elapses, or the owner tears down.
//
// The displayed percentage is an approximation by design: it may reach its
// internal ceiling before the remote call returns and is clamped at 100.
package progress
