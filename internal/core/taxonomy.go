package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Taxonomy is the read contract the entry store needs from the category tree.
type Taxonomy interface {
	SubCategoriesOf(category string) []string
}

// CategoryTree is an ordered two-level taxonomy: category -> sub-categories.
// Iteration order is insertion order at both levels.
type CategoryTree struct {
	order []string
	subs  map[string][]string
}

var _ Taxonomy = (*CategoryTree)(nil)

// NewCategoryTree returns an empty tree.
func NewCategoryTree() *CategoryTree {
	return &CategoryTree{subs: make(map[string][]string)}
}

// CategoryNode is the serialised form of one category and its sub-categories.
type CategoryNode struct {
	Name          string   `json:"name" toml:"name"`
	SubCategories []string `json:"subCategories" toml:"sub"`
}

// NewCategoryTreeFrom builds a tree from ordered nodes, rejecting duplicates.
func NewCategoryTreeFrom(nodes []CategoryNode) (*CategoryTree, error) {
	t := NewCategoryTree()
	for _, n := range nodes {
		if err := t.AddCategory(n.Name); err != nil {
			return nil, err
		}
		for _, s := range n.SubCategories {
			if err := t.AddSubCategory(n.Name, s); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// AddCategory appends a category with no sub-categories.
func (t *CategoryTree) AddCategory(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if name == AllCategories {
		return fmt.Errorf("category %q is reserved for the all-categories selection: %w", name, ErrDuplicateKey)
	}
	if _, ok := t.subs[name]; ok {
		return fmt.Errorf("category %q: %w", name, ErrDuplicateKey)
	}
	if t.subs == nil {
		t.subs = make(map[string][]string)
	}
	t.order = append(t.order, name)
	t.subs[name] = []string{}
	return nil
}

// RemoveCategory drops a category and its sub-categories. Entries that still
// reference it are not touched.
func (t *CategoryTree) RemoveCategory(name string) error {
	name = strings.TrimSpace(name)
	if _, ok := t.subs[name]; !ok {
		return fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	delete(t.subs, name)
	t.order = removeString(t.order, name)
	return nil
}

func (t *CategoryTree) AddSubCategory(category, name string) error {
	category = strings.TrimSpace(category)
	subs, ok := t.subs[category]
	if !ok {
		return fmt.Errorf("category %q: %w", category, ErrNotFound)
	}
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if indexOf(subs, name) >= 0 {
		return fmt.Errorf("sub-category %q of %q: %w", name, category, ErrDuplicateKey)
	}
	t.subs[category] = append(subs, name)
	return nil
}

func (t *CategoryTree) RemoveSubCategory(category, name string) error {
	category = strings.TrimSpace(category)
	subs, ok := t.subs[category]
	if !ok {
		return fmt.Errorf("category %q: %w", category, ErrNotFound)
	}
	name = strings.TrimSpace(name)
	if indexOf(subs, name) < 0 {
		return fmt.Errorf("sub-category %q of %q: %w", name, category, ErrNotFound)
	}
	t.subs[category] = removeString(subs, name)
	return nil
}

// SubCategoriesOf returns a copy of the ordered sub-categories, or an empty
// slice when the category does not exist.
func (t *CategoryTree) SubCategoriesOf(category string) []string {
	subs := t.subs[category]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// Categories returns category names in insertion order.
func (t *CategoryTree) Categories() []string {
	return append([]string(nil), t.order...)
}

func (t *CategoryTree) HasCategory(name string) bool {
	_, ok := t.subs[name]
	return ok
}

func (t *CategoryTree) Len() int {
	return len(t.order)
}

// Nodes returns the tree as ordered nodes.
func (t *CategoryTree) Nodes() []CategoryNode {
	nodes := make([]CategoryNode, 0, len(t.order))
	for _, name := range t.order {
		nodes = append(nodes, CategoryNode{Name: name, SubCategories: t.SubCategoriesOf(name)})
	}
	return nodes
}

func (t *CategoryTree) Clone() *CategoryTree {
	c := NewCategoryTree()
	c.order = append(c.order, t.order...)
	for k, v := range t.subs {
		c.subs[k] = append([]string{}, v...)
	}
	return c
}

// MarshalJSON encodes the tree as an ordered array so the order survives a
// round trip through the blob store.
func (t *CategoryTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Nodes())
}

func (t *CategoryTree) UnmarshalJSON(b []byte) error {
	var nodes []CategoryNode
	if err := json.Unmarshal(b, &nodes); err != nil {
		return fmt.Errorf("%w: category tree: %v", ErrFormat, err)
	}
	parsed, err := NewCategoryTreeFrom(nodes)
	if err != nil {
		return fmt.Errorf("%w: category tree: %v", ErrFormat, err)
	}
	*t = *parsed
	return nil
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if v == target {
			return i
		}
	}
	return -1
}

func removeString(arr []string, target string) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
