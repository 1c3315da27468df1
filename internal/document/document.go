// Package document loads the three source documents (raw tokens, brand/theme
// tree, component mapping) and exposes addressable leaf lookups over them.
package document

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/reference"
)

// Kind identifies one of the three source documents.
type Kind string

const (
	KindTokens  Kind = "tokens"
	KindBrand   Kind = "brand"
	KindMapping Kind = "mapping"
)

// Leaf is an addressable leaf node: a declared type plus a raw value that is
// either a literal or a reference string.
type Leaf struct {
	Type string
	Raw  any
}

// Tree is a decoded JSON document.
type Tree = map[string]any

// Load decodes a document from a reader.
func Load(r io.Reader) (Tree, error) {
	var tree Tree
	dec := json.NewDecoder(r)
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return tree, nil
}

// LoadFile decodes a document from a JSON file on disk.
func LoadFile(path string) (Tree, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from user config
	if err != nil {
		return nil, fmt.Errorf("opening document %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	tree, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading document %s: %w", path, err)
	}
	return tree, nil
}

// Index flattens the three source documents into addressable leaves.
// Lookups are plain pointer descents; any caching lives in the resolver.
type Index struct {
	tokens  Tree
	brand   Tree
	mapping Tree
}

// NewIndex builds an index over the three documents. Nil trees are allowed
// and simply produce no leaves for that document.
func NewIndex(tokens, brand, mapping Tree) *Index {
	return &Index{tokens: tokens, brand: brand, mapping: mapping}
}

// Replace swaps a document wholesale.
func (ix *Index) Replace(kind Kind, doc Tree) {
	switch kind {
	case KindTokens:
		ix.tokens = doc
	case KindBrand:
		ix.brand = doc
	case KindMapping:
		ix.mapping = doc
	default:
		log.Warn(log.CatDocument, "replace with unknown document kind", "kind", kind)
	}
}

// Document returns the current tree for a kind.
func (ix *Index) Document(kind Kind) Tree {
	switch kind {
	case KindTokens:
		return ix.tokens
	case KindBrand:
		return ix.brand
	case KindMapping:
		return ix.mapping
	default:
		return nil
	}
}

// Lookup addresses a leaf by collection and path, trying a small ordered list
// of root-shape candidates so callers never need to know which historical
// document nesting is in effect.
//
// Component-mapping leaves are addressed through the brand namespace as
// components.<name>... and resolve against the mapping document.
func (ix *Index) Lookup(collection reference.Collection, path []string) (Leaf, bool) {
	if len(path) == 0 {
		return Leaf{}, false
	}

	switch collection {
	case reference.CollectionTokens:
		return probe(ix.tokens, tokenShapes(path))
	case reference.CollectionBrand:
		if path[0] == "components" && len(path) > 1 {
			return probe(ix.mapping, [][]string{path[1:], path})
		}
		return probe(ix.brand, brandShapes(path))
	default:
		return Leaf{}, false
	}
}

// tokenShapes lists root-shape candidates for the tokens document: the path
// as given, then the same path under a "tokens" wrapper root.
func tokenShapes(path []string) [][]string {
	return [][]string{
		path,
		append([]string{"tokens"}, path...),
	}
}

// brandShapes lists root-shape candidates for the brand document. Current
// documents nest the theme tree as themes.<mode>.layers...; older ones as
// <mode>.layer... This is a compatibility concern, preserved faithfully.
func brandShapes(path []string) [][]string {
	shapes := [][]string{path}
	if path[0] == "themes" && len(path) > 1 {
		legacy := append([]string{}, path[1:]...)
		shapes = append(shapes, legacy)
		for i, seg := range legacy {
			if seg == "layers" {
				singular := append([]string{}, legacy...)
				singular[i] = "layer"
				shapes = append(shapes, singular)
				break
			}
		}
	}
	return shapes
}

func probe(tree Tree, shapes [][]string) (Leaf, bool) {
	if tree == nil {
		return Leaf{}, false
	}
	for _, shape := range shapes {
		if leaf, ok := descend(tree, shape); ok {
			return leaf, true
		}
	}
	return Leaf{}, false
}

// descend walks the tree one segment at a time and normalizes the terminal
// node into a Leaf. Both bare scalars and {type, value} objects are leaves.
func descend(tree Tree, path []string) (Leaf, bool) {
	var node any = tree
	for _, seg := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return Leaf{}, false
		}
		node, ok = m[seg]
		if !ok {
			return Leaf{}, false
		}
	}
	return normalize(node)
}

func normalize(node any) (Leaf, bool) {
	switch v := node.(type) {
	case map[string]any:
		raw, ok := v["value"]
		if !ok {
			// A branch, not a leaf.
			return Leaf{}, false
		}
		leaf := Leaf{Raw: raw}
		if t, ok := v["type"].(string); ok {
			leaf.Type = t
		}
		return leaf, true
	case nil:
		return Leaf{}, false
	case []any:
		return Leaf{}, false
	default:
		return Leaf{Raw: v}, true
	}
}

// Walk enumerates every leaf path in a collection's document in depth-first,
// key-sorted order. The engine uses it to build the full output-variable set.
func (ix *Index) Walk(collection reference.Collection, fn func(path []string, leaf Leaf)) {
	switch collection {
	case reference.CollectionTokens:
		walk(ix.tokens, nil, fn)
	case reference.CollectionBrand:
		walk(ix.brand, nil, fn)
		walk(ix.mapping, []string{"components"}, fn)
	}
}

func walk(node any, path []string, fn func(path []string, leaf Leaf)) {
	m, ok := node.(map[string]any)
	if !ok {
		return
	}
	if _, isLeaf := m["value"]; isLeaf {
		if leaf, ok := normalize(m); ok {
			fn(path, leaf)
		}
		return
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		child := m[k]
		childPath := append(append([]string{}, path...), k)
		switch child.(type) {
		case map[string]any:
			walk(child, childPath, fn)
		default:
			if leaf, ok := normalize(child); ok {
				fn(childPath, leaf)
			}
		}
	}
}
