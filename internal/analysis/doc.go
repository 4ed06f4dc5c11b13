// Package analysis drives one file through select, probe and render.
//
// A Session moves between NotSelected, PendingProbe, ProbeFailed, Ready and
// Rendered through explicit calls. Probe is the only blocking step; Start
// runs the whole sequence on a goroutine for callers that must not block.
package analysis
