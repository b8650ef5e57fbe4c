package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"sitelog/internal/amqp"
	"sitelog/internal/core"
	"sitelog/internal/persistence"
	"sitelog/internal/persistence/memory"
)

type fakeMirror struct {
	mu      sync.Mutex
	exports [][]core.Entry
	err     error
}

func (f *fakeMirror) Export(_ context.Context, entries []core.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.exports = append(f.exports, entries)
	return nil
}

func (f *fakeMirror) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.exports)
}

func saveEntries(t *testing.T, store persistence.BlobStore, entries []core.Entry) {
	t.Helper()
	b, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.Save(context.Background(), persistence.EntriesKey, b); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestHandleChangeEventMirrorsOncePerChange(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror, nil)

	saveEntries(t, store, []core.Entry{{ID: "a", Date: core.NewDate(2024, 1, 1)}})
	if err := w.HandleChangeEvent(ctx, amqp.NewChangeEvent(amqp.KindEntry, "create", "a")); err != nil {
		t.Fatalf("HandleChangeEvent: %v", err)
	}
	if err := w.HandleChangeEvent(ctx, amqp.NewChangeEvent(amqp.KindEntry, "update", "a")); err != nil {
		t.Fatalf("HandleChangeEvent: %v", err)
	}
	if mirror.count() != 1 {
		t.Fatalf("expected 1 export for unchanged data, got %d", mirror.count())
	}

	saveEntries(t, store, []core.Entry{{ID: "a"}, {ID: "b"}})
	if err := w.HandleChangeEvent(ctx, amqp.NewChangeEvent(amqp.KindImport, "import", "")); err != nil {
		t.Fatalf("HandleChangeEvent: %v", err)
	}
	if mirror.count() != 2 || len(mirror.exports[1]) != 2 {
		t.Fatalf("expected a second export with 2 entries, got %v", mirror.exports)
	}
}

func TestCategoryEventsAreIgnored(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewMirrorWorker(memory.New(), mirror, nil)
	if err := w.HandleChangeEvent(context.Background(), amqp.NewChangeEvent(amqp.KindCategory, "create", "x")); err != nil {
		t.Fatalf("HandleChangeEvent: %v", err)
	}
	if mirror.count() != 0 {
		t.Fatalf("category event triggered a mirror")
	}
}

func TestMirrorEmptyStore(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewMirrorWorker(memory.New(), mirror, nil)
	if err := w.MirrorNow(context.Background(), TriggerStartup); err != nil {
		t.Fatalf("MirrorNow: %v", err)
	}
	if mirror.count() != 1 || mirror.exports[0] == nil || len(mirror.exports[0]) != 0 {
		t.Fatalf("expected one empty export, got %v", mirror.exports)
	}
}

func TestMirrorFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	saveEntries(t, store, []core.Entry{{ID: "a"}})
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	w := NewMirrorWorker(store, mirror, nil)

	if err := w.MirrorNow(ctx, TriggerEvent); err == nil {
		t.Fatalf("expected mirror error")
	}
	mirror.err = nil
	if err := w.MirrorNow(ctx, TriggerInterval); err != nil {
		t.Fatalf("MirrorNow: %v", err)
	}
	if mirror.count() != 1 {
		t.Fatalf("failed export was not retried")
	}
}

func TestMalformedBlobIsFormatError(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_ = store.Save(ctx, persistence.EntriesKey, []byte(`{oops`))
	w := NewMirrorWorker(store, &fakeMirror{}, nil)
	if err := w.MirrorNow(ctx, TriggerEvent); !errors.Is(err, core.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestRunMirrorsAtStartupAndStops(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewMirrorWorker(memory.New(), mirror, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for mirror.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
	if mirror.count() != 1 {
		t.Fatalf("expected startup mirror, got %d exports", mirror.count())
	}
}
