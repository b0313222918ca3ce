package consolidate

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coolbeans/plenario/pkg/dataset"
)

func setupWatchRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range dataset.WatchDirs(root) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return root
}

func waitForRuns(t *testing.T, runs *int32, want int32, what string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(runs) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s (runs = %d, want %d)", what, atomic.LoadInt32(runs), want)
}

func TestWatchDatasetRerunsOnChange(t *testing.T) {
	root := setupWatchRoot(t)

	var runs int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- WatchDataset(ctx, root, 50*time.Millisecond, nil, func() {
			atomic.AddInt32(&runs, 1)
		})
	}()

	waitForRuns(t, &runs, 1, "initial run")

	path := filepath.Join(dataset.WatchDirs(root)[0], "votacoes_2020.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("failed to write dataset file: %v", err)
	}

	waitForRuns(t, &runs, 2, "rerun after dataset change")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchDataset() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestWatchDatasetCoalescesBursts(t *testing.T) {
	root := setupWatchRoot(t)

	var runs int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = WatchDataset(ctx, root, 200*time.Millisecond, nil, func() {
			atomic.AddInt32(&runs, 1)
		})
	}()

	waitForRuns(t, &runs, 1, "initial run")

	dir := dataset.WatchDirs(root)[0]
	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, "votacoes_202"+string(rune('0'+i))+".json")
		if err := os.WriteFile(name, []byte("[]"), 0o644); err != nil {
			t.Fatalf("failed to write dataset file: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	waitForRuns(t, &runs, 2, "debounced rerun")
	time.Sleep(400 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != 2 {
		t.Errorf("runs = %d, want the burst coalesced into one rerun", got)
	}
}

func TestWatchDatasetFailsWithoutDirectories(t *testing.T) {
	err := WatchDataset(context.Background(), t.TempDir(), time.Millisecond, nil, func() {})
	if err == nil {
		t.Fatal("WatchDataset() expected an error when nothing is watchable")
	}
}

func TestWatchDatasetIgnoresNonJSON(t *testing.T) {
	root := setupWatchRoot(t)

	var runs int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = WatchDataset(ctx, root, 50*time.Millisecond, nil, func() {
			atomic.AddInt32(&runs, 1)
		})
	}()

	waitForRuns(t, &runs, 1, "initial run")

	path := filepath.Join(dataset.WatchDirs(root)[0], "notes.txt")
	if err := os.WriteFile(path, []byte("scratch"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	time.Sleep(250 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("runs = %d, want non-JSON changes ignored", got)
	}
}
