package core

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh opaque entry identifier.
func NewID() string {
	return uuid.New().String()
}

// EntryStore holds work entries in insertion order. Insertion order is the
// canonical order: it is never re-sorted by date or any other key.
//
// The store is not safe for concurrent use; callers serialise access.
type EntryStore struct {
	tax     Taxonomy
	entries []Entry
	newID   func() string
}

// NewEntryStore returns an empty store that consults tax when a category changes.
func NewEntryStore(tax Taxonomy) *EntryStore {
	return &EntryStore{tax: tax, newID: NewID}
}

// Create assigns a new id, copies the caller's initial values and appends the
// entry. The id on defaults is ignored.
func (s *EntryStore) Create(defaults Entry) Entry {
	e := defaults.Clone()
	e.ID = s.newID()
	s.entries = append(s.entries, e)
	return e.Clone()
}

// Update applies a single-field mutation. The mutation runs against a copy
// which replaces the stored record only once it has fully succeeded.
func (s *EntryStore) Update(id string, m Mutation) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("entry %q: %w", id, ErrNotFound)
	}
	next := s.entries[i].Clone()
	if err := m.apply(&next, s.tax); err != nil {
		return fmt.Errorf("update %s of entry %q: %w", m.Field(), id, err)
	}
	s.entries[i] = next
	return nil
}

// Replace overwrites the record with the same id. Field values are
// validated; the sub-category repair rule is not applied.
func (s *EntryStore) Replace(e Entry) error {
	i := s.indexOf(e.ID)
	if i < 0 {
		return fmt.Errorf("entry %q: %w", e.ID, ErrNotFound)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("replace entry %q: %w", e.ID, err)
	}
	s.entries[i] = e.Clone()
	return nil
}

func (s *EntryStore) Remove(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("entry %q: %w", id, ErrNotFound)
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	return nil
}

// ReplaceAll swaps the whole collection. Entries are taken as-is, without
// checking them against the taxonomy.
func (s *EntryStore) ReplaceAll(entries []Entry) {
	s.entries = cloneEntries(entries)
}

func (s *EntryStore) Get(id string) (Entry, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Entry{}, fmt.Errorf("entry %q: %w", id, ErrNotFound)
	}
	return s.entries[i].Clone(), nil
}

// All returns a snapshot of every entry in canonical order.
func (s *EntryStore) All() []Entry {
	out := cloneEntries(s.entries)
	if out == nil {
		return []Entry{}
	}
	return out
}

func (s *EntryStore) Len() int {
	return len(s.entries)
}

func (s *EntryStore) indexOf(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}
