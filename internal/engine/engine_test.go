package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prism/internal/document"
	"github.com/zjrosen/prism/internal/override"
	"github.com/zjrosen/prism/internal/pubsub"
	"github.com/zjrosen/prism/internal/reference"
)

func testTokens() document.Tree {
	return document.Tree{
		"size": map[string]any{
			"md": map[string]any{"type": "size", "value": float64(16)},
			"lg": map[string]any{"type": "size", "value": float64(24)},
		},
		"color": map[string]any{
			"white": "#ffffff",
			"black": "#000000",
		},
	}
}

func testBrand() document.Tree {
	return document.Tree{
		"themes": map[string]any{
			"light": map[string]any{
				"layers": map[string]any{
					"layer-1": map[string]any{
						"properties": map[string]any{
							"padding": map[string]any{"type": "size", "value": "{tokens.size.md}"},
							"surface": map[string]any{"type": "color", "value": "{tokens.color.white}"},
						},
					},
				},
			},
		},
	}
}

const (
	paddingVar = "--prism-brand-themes-light-layers-layer-1-properties-padding"
	surfaceVar = "--prism-brand-themes-light-layers-layer-1-properties-surface"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	index := document.NewIndex(testTokens(), testBrand(), nil)
	e := New(index, override.NewInMemory(), Options{})
	t.Cleanup(e.Close)
	return e
}

func recvChange(t *testing.T, ch <-chan pubsub.Event[ChangeSet]) pubsub.Event[ChangeSet] {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change set")
		return pubsub.Event[ChangeSet]{}
	}
}

func TestNew_InitialSnapshot(t *testing.T) {
	e := newTestEngine(t)

	snap := e.Snapshot()
	require.Equal(t, "16", snap["--prism-tokens-size-md"])
	require.Equal(t, "24", snap["--prism-tokens-size-lg"])
	require.Equal(t, "16", snap[paddingVar], "theme leaf resolves through its reference")
	require.Equal(t, "#ffffff", snap[surfaceVar])
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	e := newTestEngine(t)

	snap := e.Snapshot()
	snap["--prism-tokens-size-md"] = "tampered"
	require.Equal(t, "16", e.Snapshot()["--prism-tokens-size-md"])
}

func TestSetOverride_PropagatesThroughReferences(t *testing.T) {
	e := newTestEngine(t)

	cs := e.SetOverride("size/md", "24")
	require.Contains(t, cs.ChangedVariableNames, "--prism-tokens-size-md")
	require.Contains(t, cs.ChangedVariableNames, paddingVar,
		"leaf resolving through the overridden token must be in the changed set")
	require.NotContains(t, cs.ChangedVariableNames, "--prism-tokens-size-lg",
		"unrelated variables must not appear changed")

	snap := e.Snapshot()
	require.Equal(t, "24", snap["--prism-tokens-size-md"])
	require.Equal(t, "24", snap[paddingVar])
}

func TestClearOverride_Reverts(t *testing.T) {
	e := newTestEngine(t)

	e.SetOverride("size/md", "24")
	cs := e.ClearOverride("size/md")
	require.Contains(t, cs.ChangedVariableNames, paddingVar)

	snap := e.Snapshot()
	require.Equal(t, "16", snap["--prism-tokens-size-md"])
	require.Equal(t, "16", snap[paddingVar])
}

func TestClearOverrides_Bulk(t *testing.T) {
	e := newTestEngine(t)

	e.SetOverride("size/md", "24")
	e.SetOverride("size/lg", "32")

	cs := e.ClearOverrides()
	require.Contains(t, cs.ChangedVariableNames, "--prism-tokens-size-md")
	require.Contains(t, cs.ChangedVariableNames, "--prism-tokens-size-lg")

	snap := e.Snapshot()
	require.Equal(t, "16", snap["--prism-tokens-size-md"])
	require.Equal(t, "24", snap["--prism-tokens-size-lg"])
}

func TestSetDocument_RemovedLeavesDropFromSnapshot(t *testing.T) {
	e := newTestEngine(t)

	next := testTokens()
	delete(next["size"].(map[string]any), "lg")
	cs := e.SetDocument(document.KindTokens, next)

	require.Contains(t, cs.ChangedVariableNames, "--prism-tokens-size-lg",
		"removed variables are reported by name")
	_, ok := e.Snapshot()["--prism-tokens-size-lg"]
	require.False(t, ok)
}

func TestSubscribe_ReceivesChangeSets(t *testing.T) {
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := e.Subscribe(ctx)

	e.SetOverride("size/md", "24")

	evt := recvChange(t, ch)
	require.Equal(t, pubsub.ResolvedEvent, evt.Type)
	require.Contains(t, evt.Payload.ChangedVariableNames, paddingVar)
}

func TestNoopMutation_PublishesNothing(t *testing.T) {
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := e.Subscribe(ctx)

	// Replacing a document with identical content changes no values.
	e.SetDocument(document.KindTokens, testTokens())

	select {
	case evt := <-ch:
		t.Fatalf("unexpected change set: %v", evt.Payload.ChangedVariableNames)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCycle_KeepsPreviousValuesAndNeighbors(t *testing.T) {
	e := newTestEngine(t)

	before := e.Snapshot()
	require.Equal(t, "16", before[paddingVar])

	// Rewire padding and surface into a two-node cycle.
	broken := testBrand()
	props := broken["themes"].(map[string]any)["light"].(map[string]any)["layers"].(map[string]any)["layer-1"].(map[string]any)["properties"].(map[string]any)
	props["padding"] = map[string]any{"type": "size", "value": "{brand.themes.light.layers.layer-1.properties.surface}"}
	props["surface"] = map[string]any{"type": "color", "value": "{brand.themes.light.layers.layer-1.properties.padding}"}

	cs := e.SetDocument(document.KindBrand, broken)
	require.Empty(t, cs.ChangedVariableNames,
		"cyclic paths keep their previous values, so nothing changes")

	snap := e.Snapshot()
	require.Equal(t, "16", snap[paddingVar], "previously-resolved value untouched")
	require.Equal(t, "#ffffff", snap[surfaceVar], "previously-resolved value untouched")
	require.Equal(t, "16", snap["--prism-tokens-size-md"], "neighbors unaffected")
}

func TestOnTone_FollowsSurface(t *testing.T) {
	e := newTestEngine(t)

	snap := e.Snapshot()
	require.Equal(t, "#000000", snap[surfaceVar+"-on"],
		"white surface takes a black on-tone")

	// Flip the surface to black; the on-tone must follow to white.
	dark := testBrand()
	props := dark["themes"].(map[string]any)["light"].(map[string]any)["layers"].(map[string]any)["layer-1"].(map[string]any)["properties"].(map[string]any)
	props["surface"] = map[string]any{"type": "color", "value": "{tokens.color.black}"}

	cs := e.SetDocument(document.KindBrand, dark)
	require.Contains(t, cs.ChangedVariableNames, surfaceVar)
	require.Contains(t, cs.ChangedVariableNames, surfaceVar+"-on")
	require.Equal(t, "#ffffff", e.Snapshot()[surfaceVar+"-on"])
}

func TestResolve_SingleLeaf(t *testing.T) {
	e := newTestEngine(t)

	value, err := e.Resolve(reference.CollectionBrand,
		[]string{"themes", "light", "layers", "layer-1", "properties", "padding"})
	require.NoError(t, err)
	require.Equal(t, "16", value)
}

func TestElevations_ComposedIntoSnapshot(t *testing.T) {
	tokens := document.Tree{
		"size": map[string]any{
			"default": map[string]any{"type": "size", "value": float64(4)},
			"1x":      map[string]any{"type": "size", "value": float64(8)},
			"none":    map[string]any{"type": "size", "value": float64(0)},
		},
		"color": map[string]any{
			"shadow": "#000000",
		},
		"opacity": map[string]any{
			"shadow": 0.4,
		},
	}
	brand := document.Tree{
		"elevations": map[string]any{
			"level-0": map[string]any{
				"blur":           "{tokens.size.default}",
				"spread":         "{tokens.size.none}",
				"offset-x":       "{tokens.size.none}",
				"offset-y":       "{tokens.size.none}",
				"shadow-color":   "{tokens.color.shadow}",
				"shadow-opacity": "{tokens.opacity.shadow}",
			},
			"level-1": map[string]any{
				"spread":         "{tokens.size.none}",
				"offset-x":       "{tokens.size.none}",
				"offset-y":       "{tokens.size.none}",
				"shadow-color":   "{tokens.color.shadow}",
				"shadow-opacity": "{tokens.opacity.shadow}",
				"scale-by-default": map[string]any{
					"blur": true,
				},
			},
		},
	}

	index := document.NewIndex(tokens, brand, nil)
	e := New(index, override.NewInMemory(), Options{})
	t.Cleanup(e.Close)

	snap := e.Snapshot()
	require.Equal(t, "4", snap["--prism-elevation-0-blur"])
	require.Equal(t, "8", snap["--prism-elevation-1-blur"],
		"scale-by-default blur advances one step from level 0")
	require.Equal(t,
		"color-mix(in srgb, var(--prism-tokens-color-shadow) calc(var(--prism-tokens-opacity-shadow) * 100%), transparent)",
		snap["--prism-elevation-0-shadow-color"])

	// Elevation axis references are not emitted as plain brand variables.
	_, ok := snap["--prism-brand-elevations-level-0-blur"]
	require.False(t, ok)
}

func TestComponentMapping_EmittedAsComponentVariables(t *testing.T) {
	mapping := document.Tree{
		"button": map[string]any{
			"background": map[string]any{
				"type":  "color",
				"value": "{brand.themes.light.layers.layer-1.properties.surface}",
			},
		},
	}
	index := document.NewIndex(testTokens(), testBrand(), mapping)
	e := New(index, override.NewInMemory(), Options{})
	t.Cleanup(e.Close)

	snap := e.Snapshot()
	require.Equal(t, "#ffffff", snap["--prism-brand-components-button-background"])
}
