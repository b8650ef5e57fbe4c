// Package services orchestrates the logbook aggregates with their adapters.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"sitelog/internal/amqp"
	"sitelog/internal/analysis"
	"sitelog/internal/core"
	"sitelog/internal/log"
	"sitelog/internal/metrics"
	"sitelog/internal/persistence"
	"sitelog/internal/transfer"
)

// Publisher announces logbook changes. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.ChangeEvent) error
}

// Options configure a Logbook. Every field is optional.
type Options struct {
	// Taxonomy is used when no category blob has been saved yet.
	Taxonomy *core.CategoryTree
	// SeedSamples adds two demonstration entries when no entry blob exists.
	SeedSamples bool
	Publisher   Publisher
	Analyzer    analysis.Analyzer
	Logger      *log.Logger
}

// Logbook owns the category tree and the entry store. All access is
// serialised by one mutex; each successful mutation is saved before the
// call returns.
type Logbook struct {
	mu    sync.Mutex
	tree  *core.CategoryTree
	store *core.EntryStore

	blobs        persistence.BlobStore
	seedTree     *core.CategoryTree
	seedSamples  bool
	pub          Publisher
	analyzer     analysis.Analyzer
	lastAnalysis AnalysisState
	logger       *log.Logger
}

func NewLogbook(blobs persistence.BlobStore, opts Options) *Logbook {
	if opts.Taxonomy == nil {
		opts.Taxonomy = core.DefaultCategoryTree()
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	tree := opts.Taxonomy.Clone()
	return &Logbook{
		tree:         tree,
		store:        core.NewEntryStore(tree),
		blobs:        blobs,
		seedTree:     opts.Taxonomy,
		seedSamples:  opts.SeedSamples,
		pub:          opts.Publisher,
		analyzer:     opts.Analyzer,
		lastAnalysis: AnalysisState{Status: AnalysisIdle},
		logger:       opts.Logger.WithComponent(log.ComponentLogbook),
	}
}

// Load reads both aggregates from the blob store. Missing or malformed
// blobs fall back to the seed taxonomy and an empty (or sample) entry list;
// only a failing store is reported as an error.
func (l *Logbook) Load(ctx context.Context) error {
	blobs := make([][]byte, len(persistence.Keys))
	found := make([]bool, len(persistence.Keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range persistence.Keys {
		i, key := i, key
		g.Go(func() error {
			b, ok, err := l.blobs.Load(gctx, key)
			if err != nil {
				return fmt.Errorf("load %s: %w", key, err)
			}
			blobs[i], found[i] = b, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var catBlob, entryBlob []byte
	var catFound, entryFound bool
	for i, key := range persistence.Keys {
		switch key {
		case persistence.CategoriesKey:
			catBlob, catFound = blobs[i], found[i]
		case persistence.EntriesKey:
			entryBlob, entryFound = blobs[i], found[i]
		}
	}

	tree := l.seedTree.Clone()
	if catFound {
		decoded := core.NewCategoryTree()
		if err := json.Unmarshal(catBlob, decoded); err != nil {
			l.logger.WarnContext(ctx, "Malformed category blob, using default taxonomy",
				log.FieldKey, persistence.CategoriesKey, log.FieldError, err)
		} else {
			tree = decoded
		}
	}

	entries := []core.Entry{}
	switch {
	case entryFound:
		var decoded []core.Entry
		if err := json.Unmarshal(entryBlob, &decoded); err != nil {
			l.logger.WarnContext(ctx, "Malformed entry blob, starting with an empty log",
				log.FieldKey, persistence.EntriesKey, log.FieldError, err)
		} else if decoded != nil {
			entries = decoded
		}
	case l.seedSamples:
		entries = core.SampleEntries(core.Today())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tree = tree
	l.store = core.NewEntryStore(tree)
	l.store.ReplaceAll(entries)
	metrics.Entries.Set(float64(l.store.Len()))

	l.logger.InfoContext(ctx, "Logbook loaded",
		log.FieldOperation, log.OpLoad,
		"categories", tree.Len(),
		log.FieldCount, len(entries))
	return nil
}

// Categories returns the taxonomy in order.
func (l *Logbook) Categories() []core.CategoryNode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tree.Nodes()
}

func (l *Logbook) SubCategoriesOf(category string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tree.SubCategoriesOf(category)
}

func (l *Logbook) AddCategory(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.tree.AddCategory(name); err != nil {
		return l.rejected(amqp.KindCategory, err)
	}
	return l.committed(ctx, amqp.KindCategory, log.OpCreate, name, persistence.CategoriesKey)
}

// RemoveCategory deletes a category. Entries that reference it are kept as they are.
func (l *Logbook) RemoveCategory(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.tree.RemoveCategory(name); err != nil {
		return l.rejected(amqp.KindCategory, err)
	}
	return l.committed(ctx, amqp.KindCategory, log.OpDelete, name, persistence.CategoriesKey)
}

func (l *Logbook) AddSubCategory(ctx context.Context, category, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.tree.AddSubCategory(category, name); err != nil {
		return l.rejected(amqp.KindCategory, err)
	}
	return l.committed(ctx, amqp.KindCategory, log.OpCreate, category+"/"+name, persistence.CategoriesKey)
}

func (l *Logbook) RemoveSubCategory(ctx context.Context, category, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.tree.RemoveSubCategory(category, name); err != nil {
		return l.rejected(amqp.KindCategory, err)
	}
	return l.committed(ctx, amqp.KindCategory, log.OpDelete, category+"/"+name, persistence.CategoriesKey)
}

// CreateEntry adds an entry initialised from sel, then applies overrides in
// order. If any override is rejected nothing is added. If only the save
// fails, the entry stays in memory and is returned together with the error.
func (l *Logbook) CreateEntry(ctx context.Context, sel core.Selection, overrides ...core.Mutation) (core.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.store.Create(core.NewEntryDefaults(sel, l.tree))
	for _, m := range overrides {
		if err := l.store.Update(e.ID, m); err != nil {
			_ = l.store.Remove(e.ID)
			return core.Entry{}, l.rejected(amqp.KindEntry, fmt.Errorf("%s: %w", m.Field(), err))
		}
	}
	created, _ := l.store.Get(e.ID)
	l.logger.DebugContext(ctx, "Entry created", log.NewFields().
		WithOperation(log.OpCreate).
		WithEntry(created.ID, created.Date.String(), created.Category, created.SubCategory).
		ToSlice()...)
	return created, l.committed(ctx, amqp.KindEntry, log.OpCreate, created.ID, persistence.EntriesKey)
}

// UpdateEntry applies one field mutation and returns the updated entry.
func (l *Logbook) UpdateEntry(ctx context.Context, id string, m core.Mutation) (core.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Update(id, m); err != nil {
		return core.Entry{}, l.rejected(amqp.KindEntry, err)
	}
	updated, _ := l.store.Get(id)
	l.logger.DebugContext(ctx, "Entry updated",
		log.FieldEntryID, id, log.FieldField, m.Field())
	return updated, l.committed(ctx, amqp.KindEntry, log.OpUpdate, id, persistence.EntriesKey)
}

// ReplaceEntry stores e verbatim under its id. No sub-category repair applies.
func (l *Logbook) ReplaceEntry(ctx context.Context, e core.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Replace(e); err != nil {
		return l.rejected(amqp.KindEntry, err)
	}
	return l.committed(ctx, amqp.KindEntry, log.OpReplace, e.ID, persistence.EntriesKey)
}

func (l *Logbook) DeleteEntry(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Remove(id); err != nil {
		return l.rejected(amqp.KindEntry, err)
	}
	return l.committed(ctx, amqp.KindEntry, log.OpDelete, id, persistence.EntriesKey)
}

func (l *Logbook) Entry(id string) (core.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Get(id)
}

// View derives the visible entries for sel, presented in order.
func (l *Logbook) View(sel core.Selection, order core.Order) core.ViewResult {
	l.mu.Lock()
	all := l.store.All()
	l.mu.Unlock()

	res := core.View(all, sel)
	res.Entries = core.Sorted(res.Entries, order)
	return res
}

// Snapshot returns every entry in insertion order.
func (l *Logbook) Snapshot() []core.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.All()
}

// Export encodes every entry with codec.
func (l *Logbook) Export(codec transfer.Codec) ([]byte, error) {
	data, err := codec.Export(l.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", codec.Name(), err)
	}
	return data, nil
}

// Import decodes data with codec and, only if every entry decodes, replaces
// the whole entry collection. It returns the number of entries imported.
func (l *Logbook) Import(ctx context.Context, codec transfer.Codec, data []byte) (int, error) {
	entries, err := codec.Import(data)
	if err != nil {
		metrics.MutationErrors.WithLabelValues(amqp.KindImport, errorClass(err)).Inc()
		return 0, err
	}
	return l.ReplaceEntries(ctx, entries)
}

// ReplaceEntries swaps in an already decoded collection, as read from a
// spreadsheet or a document.
func (l *Logbook) ReplaceEntries(ctx context.Context, entries []core.Entry) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store.ReplaceAll(entries)
	l.logger.InfoContext(ctx, "Entries imported",
		log.FieldOperation, log.OpImport, log.FieldCount, len(entries))
	return len(entries), l.committed(ctx, amqp.KindImport, log.OpImport, "", persistence.EntriesKey)
}

// committed saves the aggregate stored under key, records metrics and
// publishes a change event. The caller holds l.mu.
func (l *Logbook) committed(ctx context.Context, kind, op, id, key string) error {
	metrics.Mutations.WithLabelValues(kind, op).Inc()
	metrics.Entries.Set(float64(l.store.Len()))

	err := l.save(ctx, key)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to save logbook",
			log.FieldKey, key, log.FieldOperation, op, log.FieldError, err)
	}
	l.publish(ctx, amqp.NewChangeEvent(kind, op, id))
	return err
}

func (l *Logbook) rejected(kind string, err error) error {
	metrics.MutationErrors.WithLabelValues(kind, errorClass(err)).Inc()
	return err
}

func (l *Logbook) save(ctx context.Context, key string) error {
	var (
		blob []byte
		err  error
	)
	switch key {
	case persistence.CategoriesKey:
		blob, err = json.Marshal(l.tree)
	case persistence.EntriesKey:
		blob, err = json.Marshal(l.store.All())
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := l.blobs.Save(ctx, key, blob); err != nil {
		metrics.Saves.WithLabelValues(key, "error").Inc()
		if !errors.Is(err, core.ErrAdapterFailure) {
			err = fmt.Errorf("%w: %v", core.ErrAdapterFailure, err)
		}
		return fmt.Errorf("save %s: %w", key, err)
	}
	metrics.Saves.WithLabelValues(key, "ok").Inc()
	return nil
}

func (l *Logbook) publish(ctx context.Context, ev *amqp.ChangeEvent) {
	if l.pub == nil {
		return
	}
	if err := l.pub.Publish(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		l.logger.WarnContext(ctx, "Failed to publish change event",
			"kind", ev.Kind, log.FieldOperation, ev.Op, log.FieldError, err)
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}

// errorClass names the sentinel behind err for metric labels.
func errorClass(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrDuplicateKey):
		return "duplicate"
	case errors.Is(err, core.ErrFormat):
		return "format"
	case core.IsValidation(err):
		return "validation"
	case errors.Is(err, core.ErrAdapterFailure):
		return "adapter"
	}
	return "other"
}
