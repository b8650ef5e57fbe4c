package core

import (
	"fmt"
	"sort"
	"strings"
)

type (
	SortField     string
	SortDirection string
)

const (
	SortNone     SortField = ""
	SortDate     SortField = "date"
	SortAmount   SortField = "amount"
	SortCategory SortField = "category"
	SortStatus   SortField = "status"
	SortLocation SortField = "location"

	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Order describes how a view is presented. The zero value keeps insertion order.
type Order struct {
	Field     SortField
	Direction SortDirection
}

// ParseOrder validates a field/direction pair coming from a query string or flag.
func ParseOrder(field, dir string) (Order, error) {
	o := Order{Field: SortField(strings.TrimSpace(field)), Direction: SortDirection(strings.TrimSpace(dir))}
	switch o.Field {
	case SortNone, SortDate, SortAmount, SortCategory, SortStatus, SortLocation:
	default:
		return Order{}, fmt.Errorf("%w: sort field %q", ErrUnknownField, field)
	}
	switch o.Direction {
	case "":
		o.Direction = Asc
	case Asc, Desc:
	default:
		return Order{}, fmt.Errorf("%w: sort direction %q", ErrUnknownField, dir)
	}
	return o, nil
}

// Sorted returns a stably sorted copy of entries; ties keep insertion order.
func Sorted(entries []Entry, o Order) []Entry {
	out := append([]Entry(nil), entries...)
	if o.Field == SortNone {
		return out
	}
	less := func(a, b Entry) bool {
		switch o.Field {
		case SortDate:
			return a.Date.Before(b.Date.Time)
		case SortAmount:
			return a.Amount < b.Amount
		case SortCategory:
			return a.Category < b.Category
		case SortStatus:
			return a.Status < b.Status
		case SortLocation:
			return a.Location < b.Location
		}
		return false
	}
	sort.SliceStable(out, func(i, j int) bool {
		if o.Direction == Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
