// Package worker mirrors the entry collection to an external sink whenever
// the logbook announces a change, and periodically as a backstop.
package worker

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"sitelog/internal/amqp"
	"sitelog/internal/core"
	"sitelog/internal/log"
	"sitelog/internal/metrics"
	"sitelog/internal/persistence"
)

// Triggers recorded in metrics and logs.
const (
	TriggerStartup  = "startup"
	TriggerEvent    = "event"
	TriggerInterval = "interval"
)

// Mirror receives the full entry collection. *sheets.Client implements it.
type Mirror interface {
	Export(ctx context.Context, entries []core.Entry) error
}

// MirrorWorker copies the stored entry collection to a Mirror. Unchanged
// collections are not written twice.
type MirrorWorker struct {
	blobs  persistence.BlobStore
	mirror Mirror
	logger *log.Logger

	mu       sync.Mutex
	lastHash []byte
}

func NewMirrorWorker(blobs persistence.BlobStore, mirror Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &MirrorWorker{
		blobs:  blobs,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChangeEvent is an amqp.Handler. Category-only changes do not touch
// the entry collection and are acknowledged without a mirror.
func (w *MirrorWorker) HandleChangeEvent(ctx context.Context, ev *amqp.ChangeEvent) error {
	w.logger.DebugContext(ctx, "Processing change event",
		"kind", ev.Kind, log.FieldOperation, ev.Op, log.FieldEntryID, ev.ID)
	if ev.Kind == amqp.KindCategory {
		return nil
	}
	return w.MirrorNow(ctx, TriggerEvent)
}

// MirrorNow reads the stored entries and exports them if they changed since
// the last successful export.
func (w *MirrorWorker) MirrorNow(ctx context.Context, trigger string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.mirrorLocked(ctx, trigger)
	result := "ok"
	switch {
	case errors.Is(err, errUnchanged):
		result, err = "skipped", nil
	case err != nil:
		result = "error"
		w.logger.ErrorContext(ctx, "Mirror failed", "trigger", trigger, log.FieldError, err)
	}
	metrics.Mirrors.WithLabelValues(trigger, result).Inc()
	return err
}

var errUnchanged = errors.New("entries unchanged")

func (w *MirrorWorker) mirrorLocked(ctx context.Context, trigger string) error {
	blob, ok, err := w.blobs.Load(ctx, persistence.EntriesKey)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	if !ok {
		blob = []byte("[]")
	}
	sum := sha256.Sum256(blob)
	if w.lastHash != nil && bytes.Equal(w.lastHash, sum[:]) {
		return errUnchanged
	}

	var entries []core.Entry
	if err := json.Unmarshal(blob, &entries); err != nil {
		return fmt.Errorf("%w: entries blob: %v", core.ErrFormat, err)
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	if err := w.mirror.Export(ctx, entries); err != nil {
		return err
	}
	w.lastHash = sum[:]

	w.logger.InfoContext(ctx, "Entries mirrored",
		log.FieldOperation, log.OpMirror, "trigger", trigger, log.FieldCount, len(entries))
	return nil
}

// Run mirrors once at startup and then every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) {
	_ = w.MirrorNow(ctx, TriggerStartup)
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.MirrorNow(ctx, TriggerInterval)
		}
	}
}
