package sheets

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"sitelog/internal/core"
)

// Header is the first row of the mirror tab.
var Header = []any{"编号", "日期", "类别", "子类", "位置", "施工内容", "数量", "状态", "备注", "资源", "照片"}

const (
	colID = iota
	colDate
	colCategory
	colSubCategory
	colLocation
	colDescription
	colAmount
	colStatus
	colNotes
	colResources
	colPhotos
	numCols
)

// entryToRow renders an entry as one spreadsheet row. The status is written
// as its display label; resources and photos are JSON.
func entryToRow(e core.Entry) ([]any, error) {
	res, err := json.Marshal(nonNilResources(e.Resources))
	if err != nil {
		return nil, fmt.Errorf("encode resources of %s: %w", e.ID, err)
	}
	photos, err := json.Marshal(nonNilStrings(e.Photos))
	if err != nil {
		return nil, fmt.Errorf("encode photos of %s: %w", e.ID, err)
	}
	status := string(e.Status)
	if e.Status.Valid() {
		status = e.Status.Label()
	}
	return []any{
		e.ID,
		e.Date.String(),
		e.Category,
		e.SubCategory,
		e.Location,
		e.Description,
		e.Amount,
		status,
		e.Notes,
		string(res),
		string(photos),
	}, nil
}

// rowToEntry parses a row written by entryToRow (or typed by hand).
func rowToEntry(row []any) (core.Entry, error) {
	cells := make([]string, numCols)
	for i := 0; i < numCols && i < len(row); i++ {
		cells[i] = strings.TrimSpace(cellString(row[i]))
	}
	e := core.Entry{
		ID:          cells[colID],
		Category:    cells[colCategory],
		SubCategory: cells[colSubCategory],
		Location:    cells[colLocation],
		Description: cells[colDescription],
		Notes:       cells[colNotes],
		Resources:   []core.Resource{},
		Photos:      []string{},
	}
	if e.ID == "" {
		return core.Entry{}, fmt.Errorf("missing id")
	}
	if cells[colDate] != "" {
		d, err := core.ParseDate(cells[colDate])
		if err != nil {
			return core.Entry{}, err
		}
		e.Date = d
	}
	if cells[colAmount] != "" {
		v, err := core.ParseAmount(cells[colAmount])
		if err != nil {
			return core.Entry{}, fmt.Errorf("amount %q: %w", cells[colAmount], err)
		}
		e.Amount = v
	}
	if cells[colStatus] != "" {
		st, err := core.ParseStatus(cells[colStatus])
		if err != nil {
			return core.Entry{}, err
		}
		e.Status = st
	}
	if cells[colResources] != "" {
		if err := json.Unmarshal([]byte(cells[colResources]), &e.Resources); err != nil {
			return core.Entry{}, fmt.Errorf("%w: %v", core.ErrInvalidResource, err)
		}
		for i := range e.Resources {
			kind, err := core.ParseResourceKind(string(e.Resources[i].Kind))
			if err != nil {
				return core.Entry{}, err
			}
			e.Resources[i].Kind = kind
			if err := e.Resources[i].Validate(); err != nil {
				return core.Entry{}, err
			}
		}
	}
	if cells[colPhotos] != "" {
		if err := json.Unmarshal([]byte(cells[colPhotos]), &e.Photos); err != nil {
			return core.Entry{}, fmt.Errorf("photos: %w", err)
		}
	}
	return e, nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func nonNilResources(in []core.Resource) []core.Resource {
	if in == nil {
		return []core.Resource{}
	}
	return in
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
