package derive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prism/internal/document"
	"github.com/zjrosen/prism/internal/override"
	"github.com/zjrosen/prism/internal/reference"
	"github.com/zjrosen/prism/internal/resolver"
)

func scaleTokens(t *testing.T) document.Tree {
	t.Helper()
	tree, err := document.Load(strings.NewReader(`{
		"size": {"scale": {
			"none": 0, "0-5x": 2, "default": 4, "1x": 8,
			"1-5x": 12, "2x": 16, "3x": 24, "4x": 32
		}},
		"color": {"shadow": "#000000"},
		"opacity": {"25": 0.25}
	}`))
	require.NoError(t, err)
	return tree
}

func scaleRef(name string) reference.Reference {
	return reference.Reference{
		Collection: reference.CollectionTokens,
		Path:       []string{"size", "scale", name},
	}
}

func levelSpec(level int, axisToken string) LevelSpec {
	return LevelSpec{
		Level: level,
		Tokens: map[Axis]reference.Reference{
			AxisBlur:    scaleRef(axisToken),
			AxisSpread:  scaleRef("none"),
			AxisOffsetX: scaleRef("none"),
			AxisOffsetY: scaleRef(axisToken),
		},
		ShadowColor:    reference.Reference{Collection: reference.CollectionTokens, Path: []string{"color", "shadow"}},
		ShadowOpacity:  reference.Reference{Collection: reference.CollectionTokens, Path: []string{"opacity", "25"}},
		ScaleByDefault: map[Axis]bool{},
	}
}

func TestAdvance(t *testing.T) {
	require.Equal(t, "default", Advance("none", 2))
	require.Equal(t, "2x", Advance("default", 3))
	// Clamps at the top of the scale.
	require.Equal(t, "4x", Advance("2x", 10))
	require.Equal(t, "4x", Advance("4x", 1))
	// Zero steps is the identity.
	require.Equal(t, "1x", Advance("1x", 0))
	// Tokens outside the scale pass through untouched.
	require.Equal(t, "md", Advance("md", 3))
}

func TestComposeLevel_OwnTokens(t *testing.T) {
	res := resolver.New(document.NewIndex(scaleTokens(t), nil, nil), override.NewInMemory())
	base := levelSpec(0, "default")

	vars, err := ComposeLevel(res, base, base)
	require.NoError(t, err)

	require.Equal(t, "4", vars[VariableName(0, "blur")])
	require.Equal(t, "0", vars[VariableName(0, "spread")])
	require.Equal(t, "0", vars[VariableName(0, "offset-x")])
	require.Equal(t, "4", vars[VariableName(0, "offset-y")])
	require.Equal(t,
		"color-mix(in srgb, var(--prism-tokens-color-shadow) calc(var(--prism-tokens-opacity-25) * 100%), transparent)",
		vars[VariableName(0, "shadow-color")])
}

func TestComposeLevel_ScaleByDefaultMonotonicity(t *testing.T) {
	res := resolver.New(document.NewIndex(scaleTokens(t), nil, nil), override.NewInMemory())
	base := levelSpec(0, "default")

	// Level 3 with blur scaling by default: level 0's "default" advanced
	// three steps is "2x".
	spec3 := levelSpec(3, "none")
	spec3.ScaleByDefault[AxisBlur] = true

	vars, err := ComposeLevel(res, spec3, base)
	require.NoError(t, err)
	require.Equal(t, "16", vars[VariableName(3, "blur")])
	// Axes without the flag keep their own stored token.
	require.Equal(t, "0", vars[VariableName(3, "spread")])
}

func TestComposeLevel_ScaleClampsAtTop(t *testing.T) {
	res := resolver.New(document.NewIndex(scaleTokens(t), nil, nil), override.NewInMemory())
	base := levelSpec(0, "3x")

	spec4 := levelSpec(4, "none")
	spec4.ScaleByDefault[AxisBlur] = true

	vars, err := ComposeLevel(res, spec4, base)
	require.NoError(t, err)
	// "3x" advanced four steps clamps at "4x".
	require.Equal(t, "32", vars[VariableName(4, "blur")])
}

func TestComposeLevel_AxisFailureIsLocal(t *testing.T) {
	res := resolver.New(document.NewIndex(scaleTokens(t), nil, nil), override.NewInMemory())
	base := levelSpec(0, "default")

	broken := levelSpec(1, "default")
	broken.Tokens[AxisSpread] = reference.Reference{
		Collection: reference.CollectionTokens,
		Path:       []string{"size", "scale", "missing"},
	}

	vars, err := ComposeLevel(res, broken, base)
	require.Error(t, err)
	require.ErrorIs(t, err, resolver.ErrUnresolvedPath)

	// The failed axis is absent; the other four variables still resolved.
	_, ok := vars[VariableName(1, "spread")]
	require.False(t, ok)
	require.Equal(t, "4", vars[VariableName(1, "blur")])
	require.Contains(t, vars, VariableName(1, "shadow-color"))
}

func TestComposeAll(t *testing.T) {
	res := resolver.New(document.NewIndex(scaleTokens(t), nil, nil), override.NewInMemory())

	specs := []LevelSpec{levelSpec(0, "default")}
	for level := 1; level <= MaxLevel; level++ {
		spec := levelSpec(level, "none")
		spec.ScaleByDefault[AxisBlur] = true
		specs = append(specs, spec)
	}

	vars := ComposeAll(res, specs)
	require.Len(t, vars, 5*5)

	// Blur grows monotonically with the level.
	require.Equal(t, "4", vars[VariableName(0, "blur")])
	require.Equal(t, "8", vars[VariableName(1, "blur")])
	require.Equal(t, "12", vars[VariableName(2, "blur")])
	require.Equal(t, "16", vars[VariableName(3, "blur")])
	require.Equal(t, "24", vars[VariableName(4, "blur")])
}

func TestSpecsFromDocument(t *testing.T) {
	brand, err := document.Load(strings.NewReader(`{
		"elevations": {
			"level-0": {
				"blur": "{tokens.size.scale.default}",
				"spread": "{tokens.size.scale.none}",
				"offset-x": "{tokens.size.scale.none}",
				"offset-y": "{tokens.size.scale.0-5x}",
				"shadow-color": "{tokens.color.shadow}",
				"shadow-opacity": "{tokens.opacity.25}"
			},
			"level-1": {
				"blur": "{tokens.size.scale.1x}",
				"spread": "{tokens.size.scale.none}",
				"offset-x": "{tokens.size.scale.none}",
				"offset-y": "{tokens.size.scale.default}",
				"shadow-color": "{tokens.color.shadow}",
				"shadow-opacity": "{tokens.opacity.25}",
				"scale-by-default": {"blur": true, "offset-y": true}
			},
			"level-2": {
				"shadow-color": "oops no braces at all",
				"shadow-opacity": 0.3
			}
		}
	}`))
	require.NoError(t, err)

	specs := SpecsFromDocument(brand)
	require.Len(t, specs, 2)

	require.Equal(t, 0, specs[0].Level)
	require.Equal(t, []string{"size", "scale", "default"}, specs[0].Tokens[AxisBlur].Path)
	require.False(t, specs[0].ScaleByDefault[AxisBlur])

	require.Equal(t, 1, specs[1].Level)
	require.True(t, specs[1].ScaleByDefault[AxisBlur])
	require.True(t, specs[1].ScaleByDefault[AxisOffsetY])
	require.False(t, specs[1].ScaleByDefault[AxisSpread])
}

func TestSpecsFromDocument_NoElevations(t *testing.T) {
	require.Nil(t, SpecsFromDocument(nil))
	require.Empty(t, SpecsFromDocument(document.Tree{"themes": map[string]any{}}))
}
