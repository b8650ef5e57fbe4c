// Package transfer converts the entry collection to and from portable
// export documents.
package transfer

import (
	"fmt"
	"strings"
	"time"

	"sitelog/internal/core"
)

// Identification written into every export document.
const (
	Project = "sitelog_export"
	Version = "1.5.0"
)

// Document is the export envelope. Dates are plain strings so that every
// codec carries them identically. Resources and photos are always written
// as lists and always read back as non-nil slices.
type Document struct {
	Project    string     `json:"project"`
	Version    string     `json:"version"`
	ExportedAt string     `json:"exportedAt"`
	Entries    []entryDoc `json:"entries"`
}

type entryDoc struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"`
	Category    string        `json:"category"`
	SubCategory string        `json:"subCategory"`
	Location    string        `json:"location"`
	Description string        `json:"description"`
	Amount      float64       `json:"amount"`
	Status      string        `json:"status"`
	Notes       string        `json:"notes"`
	Resources   []resourceDoc `json:"resources"`
	Photos      []string      `json:"photos"`
}

type resourceDoc struct {
	Type  string  `json:"type"`
	Name  string  `json:"name"`
	Count float64 `json:"count"`
	Unit  string  `json:"unit"`
}

// NewDocument wraps entries in an export envelope stamped with at.
func NewDocument(entries []core.Entry, at time.Time) Document {
	doc := Document{
		Project:    Project,
		Version:    Version,
		ExportedAt: at.UTC().Format(time.RFC3339),
		Entries:    make([]entryDoc, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, toEntryDoc(e))
	}
	return doc
}

func toEntryDoc(e core.Entry) entryDoc {
	d := entryDoc{
		ID:          e.ID,
		Date:        e.Date.String(),
		Category:    e.Category,
		SubCategory: e.SubCategory,
		Location:    e.Location,
		Description: e.Description,
		Amount:      e.Amount,
		Status:      string(e.Status),
		Notes:       e.Notes,
		Resources:   make([]resourceDoc, 0, len(e.Resources)),
		Photos:      append(make([]string, 0, len(e.Photos)), e.Photos...),
	}
	for _, r := range e.Resources {
		d.Resources = append(d.Resources, resourceDoc{Type: string(r.Kind), Name: r.Name, Count: r.Count, Unit: r.Unit})
	}
	return d
}

// incomingDocument is the decoding side of Document. Entries is a pointer so
// that a missing or null list can be told apart from an empty one.
type incomingDocument struct {
	Project    string      `json:"project"`
	Version    string      `json:"version"`
	ExportedAt string      `json:"exportedAt"`
	Entries    *[]entryDoc `json:"entries"`
}

// decode validates the envelope and converts it back to entries. The first
// problem found fails the whole document with core.ErrFormat.
func (d incomingDocument) decode() ([]core.Entry, error) {
	switch {
	case d.Project == "":
		return nil, fmt.Errorf("%w: not an export document (missing project)", core.ErrFormat)
	case d.Project != Project:
		return nil, fmt.Errorf("%w: unexpected project %q", core.ErrFormat, d.Project)
	case d.Entries == nil:
		return nil, fmt.Errorf("%w: document has no entries list", core.ErrFormat)
	}
	return entriesFromDocs(*d.Entries)
}

func entriesFromDocs(docs []entryDoc) ([]core.Entry, error) {
	out := make([]core.Entry, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, d := range docs {
		e, err := d.entry()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", core.ErrFormat, i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: entry %d: duplicate id %q", core.ErrFormat, i, e.ID)
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

func (d entryDoc) entry() (core.Entry, error) {
	if strings.TrimSpace(d.ID) == "" {
		return core.Entry{}, fmt.Errorf("missing id")
	}
	e := core.Entry{
		ID:          d.ID,
		Category:    d.Category,
		SubCategory: d.SubCategory,
		Location:    d.Location,
		Description: d.Description,
		Amount:      d.Amount,
		Notes:       d.Notes,
		Resources:   make([]core.Resource, 0, len(d.Resources)),
		Photos:      append(make([]string, 0, len(d.Photos)), d.Photos...),
	}
	if d.Date != "" {
		date, err := core.ParseDate(d.Date)
		if err != nil {
			return core.Entry{}, err
		}
		e.Date = date
	}
	if err := core.ValidateAmount(d.Amount); err != nil {
		return core.Entry{}, fmt.Errorf("%w: %v", err, d.Amount)
	}
	if d.Status != "" {
		st, err := core.ParseStatus(d.Status)
		if err != nil {
			return core.Entry{}, err
		}
		e.Status = st
	}
	for _, r := range d.Resources {
		kind, err := core.ParseResourceKind(r.Type)
		if err != nil {
			return core.Entry{}, err
		}
		res := core.Resource{Kind: kind, Name: r.Name, Count: r.Count, Unit: r.Unit}
		if err := res.Validate(); err != nil {
			return core.Entry{}, err
		}
		e.Resources = append(e.Resources, res)
	}
	return e, nil
}
