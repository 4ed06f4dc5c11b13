// Command bitgraph probes media files with ffprobe and reports their bitrate
// over time.
//
// Subcommands:
//
//	probe FILE          container, stream and packet summary
//	bitrate FILE        per-bucket bitrate of stream 0 as a table or JSON
//	plot FILE -o OUT    bitrate graph as PNG or SVG
//	recent list|open|clear
//	check               ffprobe and filesystem readiness
//	version             bitgraph and ffprobe versions
//	config init|validate
//
// Logs go to stderr so stdout stays machine readable with --json.
package main
