package core

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestCategoryTreeAddAndRemove(t *testing.T) {
	tree := NewCategoryTree()
	for _, name := range []string{"道路工程", "标牌", "桥梁"} {
		if err := tree.AddCategory(name); err != nil {
			t.Fatalf("AddCategory(%q): %v", name, err)
		}
	}
	if got := tree.Categories(); !reflect.DeepEqual(got, []string{"道路工程", "标牌", "桥梁"}) {
		t.Fatalf("unexpected order: %v", got)
	}

	if err := tree.AddSubCategory("道路工程", "上面层"); err != nil {
		t.Fatalf("AddSubCategory: %v", err)
	}
	if err := tree.AddSubCategory("道路工程", "下面层"); err != nil {
		t.Fatalf("AddSubCategory: %v", err)
	}
	if got := tree.SubCategoriesOf("道路工程"); !reflect.DeepEqual(got, []string{"上面层", "下面层"}) {
		t.Fatalf("unexpected subs: %v", got)
	}

	if err := tree.RemoveSubCategory("道路工程", "上面层"); err != nil {
		t.Fatalf("RemoveSubCategory: %v", err)
	}
	if err := tree.RemoveCategory("标牌"); err != nil {
		t.Fatalf("RemoveCategory: %v", err)
	}
	if got := tree.Categories(); !reflect.DeepEqual(got, []string{"道路工程", "桥梁"}) {
		t.Fatalf("unexpected order after remove: %v", got)
	}
	if tree.HasCategory("标牌") {
		t.Fatalf("removed category still present")
	}
}

func TestCategoryTreeDuplicatesLeaveTreeUnchanged(t *testing.T) {
	tree := DefaultCategoryTree()
	before := tree.Nodes()

	ops := []func() error{
		func() error { return tree.AddCategory("道路工程") },
		func() error { return tree.AddCategory("  标牌 ") },
		func() error { return tree.AddSubCategory("道路工程", "上面层") },
		func() error { return tree.AddSubCategory("桥梁", "桩基") },
	}
	for i, op := range ops {
		if err := op(); !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("op %d: expected ErrDuplicateKey, got %v", i, err)
		}
	}
	if !reflect.DeepEqual(tree.Nodes(), before) {
		t.Fatalf("tree changed after rejected inserts")
	}
}

func TestCategoryTreeNotFound(t *testing.T) {
	tree := DefaultCategoryTree()
	cases := map[string]error{
		"remove category":        tree.RemoveCategory("missing"),
		"add sub to missing":     tree.AddSubCategory("missing", "x"),
		"remove sub missing cat": tree.RemoveSubCategory("missing", "x"),
		"remove sub missing sub": tree.RemoveSubCategory("标牌", "missing"),
	}
	for name, err := range cases {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
	if subs := tree.SubCategoriesOf("missing"); subs == nil || len(subs) != 0 {
		t.Errorf("SubCategoriesOf(missing) = %#v, want empty slice", subs)
	}
}

func TestCategoryTreeRejectsEmptyNames(t *testing.T) {
	tree := NewCategoryTree()
	if err := tree.AddCategory("  "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	_ = tree.AddCategory("A")
	if err := tree.AddSubCategory("A", ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestCategoryTreeReservesAllName(t *testing.T) {
	tree := DefaultCategoryTree()
	before := tree.Nodes()
	if err := tree.AddCategory(AllCategories); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if err := tree.AddCategory(" all "); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for padded name, got %v", err)
	}
	if !reflect.DeepEqual(tree.Nodes(), before) {
		t.Fatalf("tree changed after rejected insert")
	}
}

func TestSubCategoriesOfReturnsCopy(t *testing.T) {
	tree := DefaultCategoryTree()
	subs := tree.SubCategoriesOf("标牌")
	subs[0] = "changed"
	if tree.SubCategoriesOf("标牌")[0] != "立杆" {
		t.Fatalf("caller mutated the tree through SubCategoriesOf")
	}
}

func TestCategoryTreeJSONKeepsOrder(t *testing.T) {
	tree := DefaultCategoryTree()
	b, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back := NewCategoryTree()
	if err := json.Unmarshal(b, back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back.Nodes(), tree.Nodes()) {
		t.Fatalf("round trip changed tree:\n got %v\nwant %v", back.Nodes(), tree.Nodes())
	}

	dup := []byte(`[{"name":"A","subCategories":[]},{"name":"A","subCategories":[]}]`)
	if err := json.Unmarshal(dup, NewCategoryTree()); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for duplicate categories, got %v", err)
	}
}

func TestCategoryTreeClone(t *testing.T) {
	tree := DefaultCategoryTree()
	c := tree.Clone()
	_ = c.AddCategory("新类别")
	_ = c.AddSubCategory("标牌", "新子类")
	if tree.HasCategory("新类别") || len(tree.SubCategoriesOf("标牌")) != 4 {
		t.Fatalf("clone shares state with original")
	}
}
