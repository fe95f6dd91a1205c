// Package editor holds the workflow state machine for one editing session.
//
// All shared session state lives in a single State aggregate. Mutation goes
// through Apply, a pure function over a closed set of Action variants; no
// other code path may change State. Each action touches only the fields it
// names, which keeps the transition table independently testable and rules
// out accidental cross-field coupling.
package editor
