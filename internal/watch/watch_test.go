package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radarfeed.env")
	if err := os.WriteFile(path, []byte("RADARFEED_PSK=initial\n"), 0600); err != nil {
		t.Fatalf("write initial file: %v", err)
	}

	changed := make(chan string, 4)
	w, err := New(path, func(p string) { changed <- p })
	if err != nil {
		t.Skipf("cannot start fsnotify watcher in this sandbox: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("RADARFEED_PSK=rotated\n"), 0600); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}

	select {
	case p := <-changed:
		if p != path {
			t.Fatalf("onChange path = %q, want %q", p, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("onChange not called after file write")
	}
}
