// Package reference parses reference strings that point from one document
// leaf to another, e.g. {tokens.size.md} or {brand.themes.light.palettes.core.interactive}.
package reference

import (
	"errors"
	"fmt"
	"strings"
)

// Collection identifies the document namespace a reference resolves against.
type Collection string

const (
	CollectionTokens Collection = "tokens"
	CollectionBrand  Collection = "brand"
)

// ParseCollection normalizes a raw collection segment.
func ParseCollection(s string) (Collection, bool) {
	switch strings.ToLower(s) {
	case "tokens":
		return CollectionTokens, true
	case "brand":
		return CollectionBrand, true
	default:
		return "", false
	}
}

// Reference is a structured pointer parsed from a document leaf value.
// It has no value of its own; it must be resolved against the document index.
type Reference struct {
	Collection Collection
	Path       []string
}

// Key returns the visiting-set identity for cycle detection, e.g. "tokens:size.md".
func (r Reference) Key() string {
	return string(r.Collection) + ":" + strings.Join(r.Path, ".")
}

// TokenName returns the override identity for a token path, e.g. "size/md".
func (r Reference) TokenName() string {
	return strings.Join(r.Path, "/")
}

func (r Reference) String() string {
	return "{" + string(r.Collection) + "." + strings.Join(r.Path, ".") + "}"
}

// Parse inspects a raw document value and returns the reference it encodes,
// if any. Non-strings, malformed bracket syntax, unknown collections, and
// empty paths are all literals, never errors: documents are authored by
// tooling, and rendering a stray decoration beats failing the whole pass.
func Parse(raw any) (Reference, bool) {
	s, ok := raw.(string)
	if !ok {
		return Reference{}, false
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, false
	}

	if strings.HasPrefix(s, "{") {
		if !strings.HasSuffix(s, "}") {
			return Reference{}, false
		}
		s = s[1 : len(s)-1]
	} else if strings.HasSuffix(s, "}") {
		return Reference{}, false
	}

	return parsePath(s)
}

func parsePath(s string) (Reference, bool) {
	segments := strings.Split(s, ".")
	if len(segments) < 2 {
		return Reference{}, false
	}

	collection, ok := ParseCollection(segments[0])
	if !ok {
		return Reference{}, false
	}

	path := make([]string, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return Reference{}, false
		}
		path = append(path, seg)
	}

	return Reference{Collection: collection, Path: path}, true
}

// Strict-mode parse errors.
var (
	// ErrNotReference indicates the value is a plain literal with no
	// reference syntax at all.
	ErrNotReference = errors.New("not a reference")
	// ErrMalformedReference indicates the value has bracket syntax but
	// does not parse as a reference.
	ErrMalformedReference = errors.New("malformed reference")
)

// ParseStrict is the opt-in validation path. Where Parse silently degrades a
// malformed bracketed string to a literal, ParseStrict reports why it failed.
// Plain literals return ErrNotReference.
func ParseStrict(raw any) (Reference, error) {
	s, ok := raw.(string)
	if !ok {
		return Reference{}, ErrNotReference
	}

	s = strings.TrimSpace(s)
	braced := strings.HasPrefix(s, "{") || strings.HasSuffix(s, "}")

	if ref, ok := Parse(raw); ok {
		return ref, nil
	}

	if !braced {
		return Reference{}, ErrNotReference
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	segments := strings.Split(inner, ".")
	switch {
	case !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}"):
		return Reference{}, fmt.Errorf("%w: unbalanced braces in %q", ErrMalformedReference, s)
	case len(segments) < 2:
		return Reference{}, fmt.Errorf("%w: empty path in %q", ErrMalformedReference, s)
	default:
		if _, ok := ParseCollection(segments[0]); !ok {
			return Reference{}, fmt.Errorf("%w: unknown collection %q in %q", ErrMalformedReference, segments[0], s)
		}
		return Reference{}, fmt.Errorf("%w: empty path segment in %q", ErrMalformedReference, s)
	}
}
