package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar form used for entry dates everywhere.
const DateLayout = "2006-01-02"

const (
	StatusPending     Status = "pending"
	StatusCompleted   Status = "completed"
	StatusUnderReview Status = "under-review"
	StatusUrgent      Status = "urgent"
)

const (
	Personnel ResourceKind = "personnel"
	Machinery ResourceKind = "machinery"
	Material  ResourceKind = "material"
)

type (
	// Date is a calendar day at UTC midnight. The zero value means "no date".
	Date struct {
		time.Time
	}

	Status string

	ResourceKind string

	// Resource is one line of personnel, machinery or material used by an entry.
	Resource struct {
		Kind  ResourceKind `json:"type"`
		Name  string       `json:"name"`
		Count float64      `json:"count"`
		Unit  string       `json:"unit"`
	}

	// Entry is one recorded unit of site work.
	Entry struct {
		ID          string     `json:"id"`
		Date        Date       `json:"date"`
		Category    string     `json:"category"`
		SubCategory string     `json:"subCategory"`
		Location    string     `json:"location"`
		Description string     `json:"description"`
		Amount      float64    `json:"amount"`
		Status      Status     `json:"status"`
		Notes       string     `json:"notes"`
		Resources   []Resource `json:"resources"`
		Photos      []string   `json:"photos"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses an ISO YYYY-MM-DD string. Partial dates are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Equal compares calendar days; two absent dates are equal.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	return d.UnmarshalText([]byte(s))
}

var statusLabels = map[Status]string{
	StatusPending:     "待处理",
	StatusCompleted:   "已完成",
	StatusUnderReview: "审核中",
	StatusUrgent:      "紧急",
}

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusCompleted, StatusUnderReview, StatusUrgent}
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display label shown on site reports.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus accepts either the canonical value or its display label.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses() {
		if s == string(st) || s == statusLabels[st] {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

var resourceKindLabels = map[ResourceKind]string{
	Personnel: "人员",
	Machinery: "机械",
	Material:  "材料",
}

func (k ResourceKind) Valid() bool {
	_, ok := resourceKindLabels[k]
	return ok
}

func (k ResourceKind) Label() string {
	if l, ok := resourceKindLabels[k]; ok {
		return l
	}
	return string(k)
}

// ParseResourceKind accepts either the canonical value or its display label.
func ParseResourceKind(s string) (ResourceKind, error) {
	s = strings.TrimSpace(s)
	for k, label := range resourceKindLabels {
		if s == string(k) || s == label {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidResource, s)
}

func (r Resource) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidResource, r.Kind)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: negative count for %q", ErrInvalidResource, r.Name)
	}
	return nil
}

// Clone returns a deep copy so that callers never share slices with the
// store. Resources and Photos of the copy are never nil.
func (e Entry) Clone() Entry {
	out := e
	out.Resources = append(make([]Resource, 0, len(e.Resources)), e.Resources...)
	out.Photos = append(make([]string, 0, len(e.Photos)), e.Photos...)
	return out
}

// Validate rejects field values no entry may hold. An empty status is
// tolerated, as in records imported from older exports.
func (e Entry) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return fmt.Errorf("%w: %v", err, e.Amount)
	}
	if e.Status != "" && !e.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, e.Status)
	}
	for _, r := range e.Resources {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func cloneEntries(in []Entry) []Entry {
	if in == nil {
		return nil
	}
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
