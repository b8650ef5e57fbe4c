package core

// AllCategories selects entries of every category.
const AllCategories = "all"

// Selection is the transient date/category/sub-category filter of a view.
type Selection struct {
	Date     Date
	Category string
	// SubCategory is nil when no sub-category filter applies.
	SubCategory *string
}

// SelectDay selects every entry of one day.
func SelectDay(d Date) Selection {
	return Selection{Date: d, Category: AllCategories}
}

func (s Selection) WithCategory(category string) Selection {
	if category == "" {
		category = AllCategories
	}
	s.Category = category
	return s
}

func (s Selection) WithSubCategory(sub string) Selection {
	s.SubCategory = &sub
	return s
}

// Matches is the visibility predicate: exact date AND category AND sub-category.
func (s Selection) Matches(e Entry) bool {
	if !e.Date.Equal(s.Date) {
		return false
	}
	if s.Category != AllCategories && e.Category != s.Category {
		return false
	}
	if s.SubCategory != nil && e.SubCategory != *s.SubCategory {
		return false
	}
	return true
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Stats aggregates the visible set.
type Stats struct {
	Count      int              `json:"count"`
	Total      float64          `json:"total"`
	Completed  int              `json:"completed"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

// ViewResult is the visible subset of entries and its statistics.
type ViewResult struct {
	Entries []Entry `json:"entries"`
	Stats   Stats   `json:"stats"`
}

// View derives the visible entries for sel. It has no side effects; visible
// entries keep the order they have in entries.
func View(entries []Entry, sel Selection) ViewResult {
	res := ViewResult{
		Entries: []Entry{},
		Stats:   Stats{ByCategory: []CategoryAmount{}},
	}
	byCat := map[string]int{}
	for _, e := range entries {
		if !sel.Matches(e) {
			continue
		}
		res.Entries = append(res.Entries, e.Clone())
		res.Stats.Count++
		res.Stats.Total += e.Amount
		if e.Status == StatusCompleted {
			res.Stats.Completed++
		}
		i, ok := byCat[e.Category]
		if !ok {
			i = len(res.Stats.ByCategory)
			byCat[e.Category] = i
			res.Stats.ByCategory = append(res.Stats.ByCategory, CategoryAmount{Name: e.Category})
		}
		res.Stats.ByCategory[i].Amount += e.Amount
	}
	return res
}

// NewEntryDefaults derives initial values for a new entry from the current
// selection: its date, its category (or the first one in the tree) and its
// sub-category (or the first one of that category).
func NewEntryDefaults(sel Selection, tree *CategoryTree) Entry {
	e := Entry{
		Date:      sel.Date,
		Status:    StatusPending,
		Resources: []Resource{},
		Photos:    []string{},
	}
	if e.Date.IsEmpty() {
		e.Date = Today()
	}
	switch {
	case sel.Category != AllCategories && sel.Category != "":
		e.Category = sel.Category
	case tree.Len() > 0:
		e.Category = tree.Categories()[0]
	}
	if sel.SubCategory != nil {
		e.SubCategory = *sel.SubCategory
	} else if subs := tree.SubCategoriesOf(e.Category); len(subs) > 0 {
		e.SubCategory = subs[0]
	}
	return e
}
