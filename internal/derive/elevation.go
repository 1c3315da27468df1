package derive

import (
	"errors"
	"fmt"

	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/reference"
	"github.com/zjrosen/prism/internal/resolver"
)

// Axis identifies one of the four scalable shadow axes.
type Axis string

const (
	AxisBlur    Axis = "blur"
	AxisSpread  Axis = "spread"
	AxisOffsetX Axis = "offset-x"
	AxisOffsetY Axis = "offset-y"
)

// Axes lists every axis in emission order.
var Axes = []Axis{AxisOffsetX, AxisOffsetY, AxisBlur, AxisSpread}

// SizeScale is the canonical ordered size scale. Advancing past the end
// clamps at the top rather than wrapping or erroring.
var SizeScale = []string{"none", "0-5x", "default", "1x", "1-5x", "2x", "3x", "4x"}

// MaxLevel is the highest elevation level.
const MaxLevel = 4

// LevelSpec describes one elevation level: a token indirection per axis,
// a shadow color/opacity pair, and the per-axis scale-by-default flags.
type LevelSpec struct {
	Level          int
	Tokens         map[Axis]reference.Reference
	ShadowColor    reference.Reference
	ShadowOpacity  reference.Reference
	ScaleByDefault map[Axis]bool
}

// Advance moves a size-scale token the given number of steps up the
// canonical ordering, clamping at the top. Tokens outside the scale are
// returned unchanged.
func Advance(token string, steps int) string {
	for i, name := range SizeScale {
		if name == token {
			next := i + steps
			if next >= len(SizeScale) {
				next = len(SizeScale) - 1
			}
			if next < 0 {
				next = 0
			}
			return SizeScale[next]
		}
	}
	return token
}

// axisToken picks the token to resolve for one axis of one level: the
// level's own stored token, or - when the axis scales by default - level
// zero's token advanced Level steps along the canonical scale.
func axisToken(spec, base LevelSpec, axis Axis) (reference.Reference, bool) {
	if spec.ScaleByDefault[axis] {
		ref, ok := base.Tokens[axis]
		if !ok {
			return reference.Reference{}, false
		}
		scaled := reference.Reference{
			Collection: ref.Collection,
			Path:       append([]string{}, ref.Path...),
		}
		last := len(scaled.Path) - 1
		scaled.Path[last] = Advance(scaled.Path[last], spec.Level)
		return scaled, true
	}
	ref, ok := spec.Tokens[axis]
	return ref, ok
}

// VariableName returns the output variable for one facet of a level,
// e.g. VariableName(2, "blur") -> "--prism-elevation-2-blur".
func VariableName(level int, facet string) string {
	return fmt.Sprintf("%s-elevation-%d-%s", resolver.VariablePrefix, level, facet)
}

// ComposeLevel resolves the five output variables for one elevation level:
// x-offset, y-offset, blur, spread, and shadow-color. base is the level-0
// spec that scale-by-default axes advance from.
//
// Axis failures are local: a failed axis is omitted from the result and
// reported, the rest still resolve.
func ComposeLevel(res *resolver.Resolver, spec, base LevelSpec) (map[string]string, error) {
	vars := make(map[string]string, 5)
	var errs []error

	for _, axis := range Axes {
		ref, ok := axisToken(spec, base, axis)
		if !ok {
			errs = append(errs, fmt.Errorf("level %d axis %s: no token configured", spec.Level, axis))
			continue
		}
		value, err := res.Resolve(ref.Collection, ref.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("level %d axis %s: %w", spec.Level, axis, err))
			continue
		}
		vars[VariableName(spec.Level, string(axis))] = value
	}

	if shadow, err := shadowColor(res, spec); err != nil {
		errs = append(errs, fmt.Errorf("level %d shadow color: %w", spec.Level, err))
	} else {
		vars[VariableName(spec.Level, "shadow-color")] = shadow
	}

	return vars, errors.Join(errs...)
}

// shadowColor combines the resolved base color with the resolved opacity
// token as a transparency mix. The mix references the color and opacity
// variables rather than baking in a pre-multiplied rgba literal, so a later
// opacity change re-renders without recomputing the color.
func shadowColor(res *resolver.Resolver, spec LevelSpec) (string, error) {
	if _, err := res.Resolve(spec.ShadowColor.Collection, spec.ShadowColor.Path); err != nil {
		return "", err
	}
	if _, err := res.Resolve(spec.ShadowOpacity.Collection, spec.ShadowOpacity.Path); err != nil {
		return "", err
	}

	colorVar := resolver.VariableNameFor(spec.ShadowColor.Collection, spec.ShadowColor.Path)
	opacityVar := resolver.VariableNameFor(spec.ShadowOpacity.Collection, spec.ShadowOpacity.Path)
	return fmt.Sprintf("color-mix(in srgb, var(%s) calc(var(%s) * 100%%), transparent)",
		colorVar, opacityVar), nil
}

// ComposeAll composes every level in specs. Level failures are logged and
// skipped; the remaining levels still produce variables.
func ComposeAll(res *resolver.Resolver, specs []LevelSpec) map[string]string {
	base := LevelSpec{}
	for _, spec := range specs {
		if spec.Level == 0 {
			base = spec
			break
		}
	}

	out := make(map[string]string, len(specs)*5)
	for _, spec := range specs {
		vars, err := ComposeLevel(res, spec, base)
		if err != nil {
			log.ErrorErr(log.CatDerive, "elevation level partially failed", err, "level", spec.Level)
		}
		for k, v := range vars {
			out[k] = v
		}
	}
	return out
}
