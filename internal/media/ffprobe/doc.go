// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no bitgraph-specific dependencies beyond the shared error
// markers and could be extracted as a standalone library.
//
// Key types:
//   - ProbeData: parsed packet, stream, format and error sections
//   - Packet: one demuxed packet (stream, pts, pts_time, size)
//   - Format: container-level metadata (duration, size, bitrate)
//   - ProbeError: the failure ffprobe reports for unreadable input
//   - ProgramVersion: build information for diagnostics
//
// Primary entry points:
//   - Prober.Probe: executes ffprobe against a file and decodes ProbeData
//   - Prober.FetchVersion: queries the program version
//   - Decode: decodes a ProbeData document from any reader
//
// ffprobe stringifies numeric values; the model types decode them through
// jsonutil so a malformed value fails loudly instead of becoming zero.
package ffprobe
