// Package services defines shared utilities consumed by the ffprobe wrapper,
// the bitrate pipeline and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp media paths, pipeline steps, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     one kind (discovery, invalid input, launch, decode, tool reported,
//     precondition) that callers can test with errors.Is.
//   - Describe, which turns those kinds into user-facing messages that never
//     conflate a bad input file with a missing or broken tool.
package services
