package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.PDF"))
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden.pdf"))
	touch(t, filepath.Join(root, "manual", "manual.pdf"))

	files, stats, err := ScanDirectory(root, ScanOptions{SkipHidden: true})
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	want := []string{filepath.Join(root, "a.pdf"), filepath.Join(root, "b.PDF")}
	if len(files) != len(want) {
		t.Fatalf("ScanDirectory() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
	if stats.Matched != 2 {
		t.Errorf("Matched = %d, want 2", stats.Matched)
	}

	files, _, err = ScanDirectory(root, ScanOptions{SkipHidden: true, Recursive: true})
	if err != nil {
		t.Fatalf("ScanDirectory(recursive) error = %v", err)
	}
	if len(files) != 3 {
		t.Errorf("recursive scan = %v, want 3 files", files)
	}

	if _, _, err := ScanDirectory(filepath.Join(root, "missing"), ScanOptions{}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestStartWatcherEmitsNewPDF(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "existing.pdf"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("StartWatcher() error = %v", err)
	}

	if got := <-events; filepath.Base(got) != "existing.pdf" {
		t.Fatalf("first event = %q, want existing.pdf", got)
	}

	touch(t, filepath.Join(root, "ignored.txt"))
	touch(t, filepath.Join(root, "new.pdf"))
	select {
	case got := <-events:
		if filepath.Base(got) != "new.pdf" {
			t.Fatalf("event = %q, want new.pdf", got)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for new.pdf")
	}
}

func TestStartWatcherNoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}); err == nil {
		t.Fatal("expected error without roots")
	}
}
