package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// VersionJSON is what a stub prints for -show_program_version.
const VersionJSON = `{"program_version":{"version":"6.1.1","copyright":"Copyright (c) 2007-2023 the FFmpeg developers","compiler_ident":"gcc 13","configuration":"--enable-gpl"}}`

// PacketsJSON is a small probe result: three stream 0 packets and one audio
// packet over a two second file.
const PacketsJSON = `{
"packets": [
{"stream_index": 0, "pts": 0, "pts_time": "0.000000", "size": "2048"},
{"stream_index": 1, "pts": 0, "pts_time": "0.000000", "size": "512"},
{"stream_index": 0, "pts": 1001, "pts_time": "0.500000", "size": "1024"},
{"stream_index": 0, "pts": 2002, "pts_time": "1.500000", "size": "3072"}
],
"streams": [
{"index": 0, "codec_name": "h264", "codec_type": "video"},
{"index": 1, "codec_name": "aac", "codec_type": "audio"}
],
"format": {"filename": "clip.mkv", "format_name": "matroska,webm", "format_long_name": "Matroska / WebM", "start_time": "0.000000", "duration": "2.000000", "size": "6656", "bit_rate": "26624"}
}`

// FFprobeScript returns a stub body that answers the version query with
// VersionJSON and any other invocation with probeJSON.
func FFprobeScript(probeJSON string) string {
	return `for arg in "$@"; do
  if [ "$arg" = "-show_program_version" ]; then
    cat <<'JSON'
` + VersionJSON + `
JSON
    exit 0
  fi
done
cat <<'JSON'
` + probeJSON + `
JSON
`
}

// WriteFFprobeStub writes an executable shell script named ffprobe into dir
// running body and returns its path. Tests using it are skipped on Windows.
func WriteFFprobeStub(t testing.TB, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	path := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return path
}
