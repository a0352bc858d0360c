package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

var (
	pngSignature  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegSignature = []byte{0xff, 0xd8, 0xff, 0xe0}
)

// PNGBytes returns a payload that content sniffing recognises as image/png.
func PNGBytes() []byte {
	return padded(pngSignature)
}

// JPEGBytes returns a payload that content sniffing recognises as image/jpeg.
func JPEGBytes() []byte {
	return padded(jpegSignature)
}

func padded(signature []byte) []byte {
	out := make([]byte, 0, 64)
	out = append(out, signature...)
	for len(out) < 64 {
		out = append(out, 0x42)
	}
	return out
}

// WriteImage writes PNGBytes to path, creating parent directories.
func WriteImage(t testing.TB, path string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, PNGBytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
