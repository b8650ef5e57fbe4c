package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"sitelog/internal/core"
)

// taxonomyFile is the on-disk shape of a seed taxonomy:
//
//	[[category]]
//	name = "道路工程"
//	sub  = ["上面层", "下面层"]
type taxonomyFile struct {
	Category []core.CategoryNode `toml:"category"`
}

// LoadTaxonomy reads a seed taxonomy from a TOML file. An empty path yields
// the built-in default tree.
func LoadTaxonomy(path string) (*core.CategoryTree, error) {
	if path == "" {
		return core.DefaultCategoryTree(), nil
	}
	var f taxonomyFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode taxonomy %s: %w: %v", path, core.ErrFormat, err)
	}
	return buildTaxonomy(f.Category)
}

// ParseTaxonomy decodes a seed taxonomy from TOML text.
func ParseTaxonomy(data string) (*core.CategoryTree, error) {
	var f taxonomyFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w: %v", core.ErrFormat, err)
	}
	return buildTaxonomy(f.Category)
}

// buildTaxonomy builds a tree, rejecting duplicates and empty names.
func buildTaxonomy(nodes []core.CategoryNode) (*core.CategoryTree, error) {
	tree, err := core.NewCategoryTreeFrom(nodes)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	return tree, nil
}
