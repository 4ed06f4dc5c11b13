// Package preflight provides readiness checks for ffprobe and the
// filesystem paths bitgraph writes to.
//
// The CLI "bitgraph check" command runs RunAll and prints one row per
// Result. Checks for disabled features (history persistence, file logging)
// are skipped.
package preflight
