package testsupport

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteLogFile writes lines JSON log records to path, creating parent
// directories. A count <= 0 writes a single record.
func WriteLogFile(t testing.TB, path string, lines int) {
	t.Helper()

	if lines <= 0 {
		lines = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := range lines {
		fmt.Fprintf(w, `{"ts":"2026-01-01T00:00:%02dZ","level":"info","msg":"insight ready","component":"insight","seq_click":%d}`+"\n", i%60, i+1)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
