package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes data to path, creating parent directories. A nil data
// writes size bytes of a repeating pattern instead.
func WriteFile(t testing.TB, path string, data []byte, size int) string {
	t.Helper()

	if data == nil {
		if size <= 0 {
			size = 1
		}
		data = make([]byte, size)
		for i := range data {
			data[i] = 0x42
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
