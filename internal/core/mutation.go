package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field names accepted at the API and CLI boundaries.
const (
	FieldDate        = "date"
	FieldCategory    = "category"
	FieldSubCategory = "subCategory"
	FieldLocation    = "location"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldStatus      = "status"
	FieldNotes       = "notes"
	FieldResources   = "resources"
	FieldPhotos      = "photos"
)

// Fields lists the editable fields in the order mutations are applied when
// several arrive together, so that a category change precedes its sub-category.
var Fields = []string{
	FieldDate,
	FieldCategory,
	FieldSubCategory,
	FieldLocation,
	FieldDescription,
	FieldAmount,
	FieldStatus,
	FieldNotes,
	FieldResources,
	FieldPhotos,
}

// Mutation is a single-field edit of an entry. The set of mutations is closed:
// only the Set* types in this package implement it.
type Mutation interface {
	// Field names the entry attribute the mutation writes.
	Field() string
	apply(e *Entry, tax Taxonomy) error
}

type (
	SetDate        struct{ Date Date }
	SetCategory    struct{ Category string }
	SetSubCategory struct{ SubCategory string }
	SetLocation    struct{ Location string }
	SetDescription struct{ Description string }
	SetAmount      struct{ Amount float64 }
	SetStatus      struct{ Status Status }
	SetNotes       struct{ Notes string }
	SetResources   struct{ Resources []Resource }
	SetPhotos      struct{ Photos []string }
)

func (SetDate) Field() string        { return FieldDate }
func (SetCategory) Field() string    { return FieldCategory }
func (SetSubCategory) Field() string { return FieldSubCategory }
func (SetLocation) Field() string    { return FieldLocation }
func (SetDescription) Field() string { return FieldDescription }
func (SetAmount) Field() string      { return FieldAmount }
func (SetStatus) Field() string      { return FieldStatus }
func (SetNotes) Field() string       { return FieldNotes }
func (SetResources) Field() string   { return FieldResources }
func (SetPhotos) Field() string      { return FieldPhotos }

func (m SetDate) apply(e *Entry, _ Taxonomy) error {
	if m.Date.IsEmpty() {
		return fmt.Errorf("%w: date cannot be empty", ErrInvalidDate)
	}
	e.Date = m.Date
	return nil
}

// apply changes the category and repairs the sub-category: a sub-category
// that does not belong to the new category is replaced by the first one
// listed, or cleared when the new category has none.
func (m SetCategory) apply(e *Entry, tax Taxonomy) error {
	subs := tax.SubCategoriesOf(m.Category)
	e.Category = m.Category
	if indexOf(subs, e.SubCategory) >= 0 {
		return nil
	}
	if len(subs) > 0 {
		e.SubCategory = subs[0]
	} else {
		e.SubCategory = ""
	}
	return nil
}

func (m SetSubCategory) apply(e *Entry, _ Taxonomy) error {
	e.SubCategory = m.SubCategory
	return nil
}

func (m SetLocation) apply(e *Entry, _ Taxonomy) error {
	e.Location = m.Location
	return nil
}

func (m SetDescription) apply(e *Entry, _ Taxonomy) error {
	e.Description = m.Description
	return nil
}

func (m SetAmount) apply(e *Entry, _ Taxonomy) error {
	if err := ValidateAmount(m.Amount); err != nil {
		return fmt.Errorf("%w: %v", err, m.Amount)
	}
	e.Amount = m.Amount
	return nil
}

func (m SetStatus) apply(e *Entry, _ Taxonomy) error {
	if !m.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, m.Status)
	}
	e.Status = m.Status
	return nil
}

func (m SetNotes) apply(e *Entry, _ Taxonomy) error {
	e.Notes = m.Notes
	return nil
}

func (m SetResources) apply(e *Entry, _ Taxonomy) error {
	for _, r := range m.Resources {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	e.Resources = append([]Resource{}, m.Resources...)
	return nil
}

func (m SetPhotos) apply(e *Entry, _ Taxonomy) error {
	e.Photos = append([]string{}, m.Photos...)
	return nil
}

// DecodeMutation turns a field name and a JSON value into a typed mutation.
func DecodeMutation(field string, value json.RawMessage) (Mutation, error) {
	switch field {
	case FieldDate:
		var d Date
		if err := json.Unmarshal(value, &d); err != nil {
			return nil, err
		}
		return SetDate{Date: d}, nil
	case FieldAmount:
		var v float64
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, string(value))
		}
		return SetAmount{Amount: v}, nil
	case FieldStatus:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, string(value))
		}
		st, err := ParseStatus(s)
		if err != nil {
			return nil, err
		}
		return SetStatus{Status: st}, nil
	case FieldResources:
		var rs []Resource
		if err := json.Unmarshal(value, &rs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResource, err)
		}
		return SetResources{Resources: rs}, nil
	case FieldPhotos:
		var ps []string
		if err := json.Unmarshal(value, &ps); err != nil {
			return nil, fmt.Errorf("decode photos: %w", err)
		}
		return SetPhotos{Photos: ps}, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", field, err)
	}
	return ParseMutation(field, s)
}

// ParseMutation turns a field name and its textual value into a typed
// mutation. Resources and photos are given as JSON arrays.
func ParseMutation(field, value string) (Mutation, error) {
	switch field {
	case FieldDate:
		d, err := ParseDate(value)
		if err != nil {
			return nil, err
		}
		return SetDate{Date: d}, nil
	case FieldCategory:
		return SetCategory{Category: strings.TrimSpace(value)}, nil
	case FieldSubCategory:
		return SetSubCategory{SubCategory: strings.TrimSpace(value)}, nil
	case FieldLocation:
		return SetLocation{Location: value}, nil
	case FieldDescription:
		return SetDescription{Description: value}, nil
	case FieldAmount:
		v, err := ParseAmount(value)
		if err != nil {
			return nil, err
		}
		return SetAmount{Amount: v}, nil
	case FieldStatus:
		st, err := ParseStatus(value)
		if err != nil {
			return nil, err
		}
		return SetStatus{Status: st}, nil
	case FieldNotes:
		return SetNotes{Notes: value}, nil
	case FieldResources, FieldPhotos:
		return DecodeMutation(field, json.RawMessage(value))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}
