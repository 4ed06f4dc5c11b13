package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// matroskaMagic is the EBML header ID that opens every Matroska/WebM file.
var matroskaMagic = []byte{0x1a, 0x45, 0xdf, 0xa3}

// WriteMedia creates a stand-in media file of size bytes that starts with a
// Matroska signature. The stubbed ffprobe never reads it; the CLI only needs a
// regular file to exist. Sizes below the signature length are raised to it.
func WriteMedia(t testing.TB, path string, size int) string {
	t.Helper()

	size = max(size, len(matroskaMagic))
	data := append(bytes.Clone(matroskaMagic), bytes.Repeat([]byte{0}, size-len(matroskaMagic))...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
