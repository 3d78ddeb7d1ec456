package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFilesystemBackendRoundTrip(t *testing.T) {
	backend := NewFilesystemBackend(t.TempDir())
	ctx := context.Background()

	if err := backend.Put(ctx, "results/a.png", strings.NewReader("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reader, err := backend.Get(ctx, "results/a.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("read back %q, want %q", data, "payload")
	}

	if err := backend.Delete(ctx, "results/a.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := backend.Get(ctx, "results/a.png"); err == nil {
		t.Error("expected Get to fail after Delete")
	}
	// Deleting a missing key is not an error.
	if err := backend.Delete(ctx, "results/a.png"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFilesystemBackendListWithInfo(t *testing.T) {
	backend := NewFilesystemBackend(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"results/ab1.png", "results/ab2.png", "results/cd.png", "thumbs/ab1.png"} {
		if err := backend.Put(ctx, key, strings.NewReader("x")); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	tests := []struct {
		prefix string
		want   int
	}{
		{"results/", 3},
		{"results/ab", 2},
		{"thumbs/", 1},
		{"missing/", 0},
	}
	for _, tt := range tests {
		files, err := backend.ListWithInfo(ctx, tt.prefix)
		if err != nil {
			t.Fatalf("ListWithInfo(%q): %v", tt.prefix, err)
		}
		if len(files) != tt.want {
			t.Errorf("ListWithInfo(%q) = %d files, want %d", tt.prefix, len(files), tt.want)
		}
		for _, fi := range files {
			if !strings.HasPrefix(fi.Key, tt.prefix) {
				t.Errorf("ListWithInfo(%q) returned key %q outside prefix", tt.prefix, fi.Key)
			}
		}
	}
}

func TestResultStoreKeysAndSweep(t *testing.T) {
	store := NewResultStore(NewFilesystemBackend(t.TempDir()))
	ctx := context.Background()
	jobID := uuid.New()

	sourceKey, err := store.StoreSource(ctx, jobID, "png", []byte("source"))
	if err != nil {
		t.Fatalf("StoreSource: %v", err)
	}
	resultKey, err := store.StoreResult(ctx, jobID, []byte("result"))
	if err != nil {
		t.Fatalf("StoreResult: %v", err)
	}
	thumbKey, err := store.StoreThumbnail(ctx, jobID, []byte("thumb"))
	if err != nil {
		t.Fatalf("StoreThumbnail: %v", err)
	}

	if !strings.HasPrefix(sourceKey, "sources/") || !strings.HasSuffix(sourceKey, ".png") {
		t.Errorf("unexpected source key %q", sourceKey)
	}
	if !strings.HasPrefix(resultKey, "results/") {
		t.Errorf("unexpected result key %q", resultKey)
	}

	data, err := store.Read(ctx, resultKey)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(data, []byte("result")) {
		t.Errorf("Read = %q, want %q", data, "result")
	}

	// Sweep keeping only the result file removes the other two. A zero
	// minimum age makes just-written files eligible.
	removed, err := store.SweepOrphans(ctx, 0, func(key string) bool {
		return key == resultKey
	})
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if removed != 2 {
		t.Errorf("SweepOrphans removed %d files, want 2", removed)
	}
	if _, err := store.Read(ctx, thumbKey); err == nil {
		t.Error("thumbnail should have been swept")
	}
	if _, err := store.Read(ctx, resultKey); err != nil {
		t.Errorf("result file should have survived sweep: %v", err)
	}
}

func TestSweepOrphansSkipsFreshFiles(t *testing.T) {
	store := NewResultStore(NewFilesystemBackend(t.TempDir()))
	ctx := context.Background()

	key, err := store.StoreResult(ctx, uuid.New(), []byte("fresh"))
	if err != nil {
		t.Fatalf("StoreResult: %v", err)
	}

	removed, err := store.SweepOrphans(ctx, time.Hour, func(string) bool { return false })
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if removed != 0 {
		t.Errorf("SweepOrphans removed %d fresh files, want 0", removed)
	}
	if _, err := store.Read(ctx, key); err != nil {
		t.Errorf("fresh file should have survived sweep: %v", err)
	}
}
