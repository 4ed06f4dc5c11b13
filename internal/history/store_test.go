package history

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"bitgraph/internal/logging"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "recent.json")
	store := NewStore(path, 3, logging.NewNop())

	h, err := store.Load()
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if !h.IsEmpty() {
		t.Fatalf("expected empty history, got %v", h.Snapshot())
	}

	h.Push("/media/a.mkv")
	h.Push("/media/b.mkv")
	if err := store.Save(context.Background(), h); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewStore(path, 3, logging.NewNop()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := reloaded.Snapshot(); !slices.Equal(got, []string{"/media/b.mkv", "/media/a.mkv"}) {
		t.Fatalf("reloaded = %v", got)
	}
}

func TestStoreLoadTruncatesToLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	if err := os.WriteFile(path, []byte(`["d","c","b","a"]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h, err := NewStore(path, 2, nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := h.Snapshot(); !slices.Equal(got, []string{"d", "c"}) {
		t.Fatalf("snapshot = %v", got)
	}
}

func TestStoreLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewStore(path, 2, nil).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStoreUpdateRecoversFromGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewStore(path, 2, logging.NewNop())
	h, err := store.Update(context.Background(), func(h *History[string]) { h.Push("x") })
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := h.Snapshot(); !slices.Equal(got, []string{"x"}) {
		t.Fatalf("snapshot = %v", got)
	}
	reloaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := reloaded.Snapshot(); !slices.Equal(got, []string{"x"}) {
		t.Fatalf("persisted = %v", got)
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store := NewStore(path, 16, logging.NewNop())
			_, err := store.Update(context.Background(), func(h *History[string]) {
				h.Push(filepath.Join("/media", string(rune('a'+i))+".mkv"))
			})
			if err != nil {
				t.Errorf("Update %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	h, err := NewStore(path, 16, nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Len() != 8 {
		t.Fatalf("expected every update to survive, got %v", h.Snapshot())
	}
}

func TestStoreInMemory(t *testing.T) {
	store := NewStore("  ", 2, nil)
	if store.Path() != "" {
		t.Fatalf("path = %q", store.Path())
	}
	h, err := store.Update(context.Background(), func(h *History[string]) { h.Push("a") })
	if err != nil || h.Len() != 1 {
		t.Fatalf("Update = %v, %v", h, err)
	}
	if err := store.Save(context.Background(), h); err != nil {
		t.Fatalf("Save: %v", err)
	}
}
