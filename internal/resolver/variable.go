package resolver

import (
	"strings"

	"github.com/zjrosen/prism/internal/reference"
)

// VariablePrefix namespaces every emitted style variable.
const VariablePrefix = "--prism"

// VariableNameFor derives the deterministic output identifier for a resolved
// leaf: a kebab-cased CSS custom property name. It is kept separate from
// Resolve so the same resolution logic serves both variable emission and
// plain value lookups.
//
// The mapping is pure and injective per sanitized segment; collisions can
// only come from documents that already collide, which is a design-time
// document error rather than something to silently repair.
func VariableNameFor(collection reference.Collection, path []string) string {
	parts := make([]string, 0, len(path)+2)
	parts = append(parts, VariablePrefix, string(collection))
	for _, seg := range path {
		parts = append(parts, sanitizeSegment(seg))
	}
	return strings.Join(parts, "-")
}

func sanitizeSegment(seg string) string {
	seg = strings.ToLower(strings.TrimSpace(seg))
	replacer := strings.NewReplacer(".", "-", "/", "-", "_", "-", " ", "-")
	return replacer.Replace(seg)
}
