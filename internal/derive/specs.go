package derive

import (
	"fmt"

	"github.com/zjrosen/prism/internal/document"
	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/reference"
)

// SpecsFromDocument reads elevation level specs from the brand document's
// "elevations" subtree. Levels are keyed level-0 through level-4; axis and
// shadow entries are reference strings, scale-by-default is a bool map.
// Missing levels and malformed entries are skipped with a log line, never
// an error: elevation is derived decoration, not core resolution.
func SpecsFromDocument(brand document.Tree) []LevelSpec {
	if brand == nil {
		return nil
	}
	elevations, ok := brand["elevations"].(map[string]any)
	if !ok {
		return nil
	}

	specs := make([]LevelSpec, 0, MaxLevel+1)
	for level := 0; level <= MaxLevel; level++ {
		node, ok := elevations[fmt.Sprintf("level-%d", level)].(map[string]any)
		if !ok {
			continue
		}
		spec, ok := specFromNode(level, node)
		if !ok {
			log.Warn(log.CatDerive, "skipping malformed elevation level", "level", level)
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}

func specFromNode(level int, node map[string]any) (LevelSpec, bool) {
	spec := LevelSpec{
		Level:          level,
		Tokens:         make(map[Axis]reference.Reference, len(Axes)),
		ScaleByDefault: make(map[Axis]bool, len(Axes)),
	}

	for _, axis := range Axes {
		if ref, ok := reference.Parse(node[string(axis)]); ok {
			spec.Tokens[axis] = ref
		}
	}

	color, ok := reference.Parse(node["shadow-color"])
	if !ok {
		return LevelSpec{}, false
	}
	opacity, ok := reference.Parse(node["shadow-opacity"])
	if !ok {
		return LevelSpec{}, false
	}
	spec.ShadowColor = color
	spec.ShadowOpacity = opacity

	if flags, ok := node["scale-by-default"].(map[string]any); ok {
		for _, axis := range Axes {
			if b, ok := flags[string(axis)].(bool); ok {
				spec.ScaleByDefault[axis] = b
			}
		}
	}

	return spec, true
}
