// Package preflight provides readiness checks for the speech service
// and filesystem paths that redub depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and reports failures in its status.
//   - The CLI "redub status" command uses individual check functions
//     (CheckSpeechService, CheckDirectoryAccess) to display health.
package preflight
