// Package preflight validates the directories a run depends on before any
// file is touched.
//
// These checks run in two contexts:
//   - organize and sync call CheckRoot on their root arguments and abort with
//     a validation error when a root is missing, not a directory, or lacks
//     the access the run needs.
//   - `mediashelf config validate` calls RunAll to report on the directories
//     the configuration points at.
package preflight
