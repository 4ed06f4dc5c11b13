// Package config loads, normalizes, and validates bitgraph configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the BITGRAPH_FFPROBE environment
// override. The Config type centralizes every knob the CLI needs: where to
// find ffprobe, how wide aggregation buckets are, where the recent files list
// lives, and how graphs and logs are produced.
//
// Validation failures are tagged with services.ErrConfiguration so callers
// can report them distinctly from probe failures.
package config
