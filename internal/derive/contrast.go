// Package derive implements computations layered on top of the resolver:
// elevation composition and accessibility-contrast color selection.
package derive

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Default on-tone candidates. Black is listed first so an exact ratio tie
// selects it.
const (
	OnToneBlack = "#000000"
	OnToneWhite = "#ffffff"
)

// RelativeLuminance computes WCAG relative luminance for a hex color.
func RelativeLuminance(hex string) (float64, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, fmt.Errorf("parsing color %q: %w", hex, err)
	}
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B), nil
}

// linearize maps an sRGB channel in [0,1] to its linear-light value.
func linearize(c float64) float64 {
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// ContrastRatio computes the WCAG contrast ratio between two luminances.
func ContrastRatio(l1, l2 float64) float64 {
	lighter := math.Max(l1, l2)
	darker := math.Min(l1, l2)
	return (lighter + 0.05) / (darker + 0.05)
}

// SelectOnTone picks the candidate color with the highest contrast ratio
// against the surface. With no candidates it considers pure black and pure
// white; exact ties keep the earliest candidate, which tie-breaks toward
// black for the default pair.
func SelectOnTone(surfaceHex string, candidates ...string) (string, error) {
	if len(candidates) == 0 {
		candidates = []string{OnToneBlack, OnToneWhite}
	}

	surface, err := RelativeLuminance(surfaceHex)
	if err != nil {
		return "", err
	}

	best := ""
	bestRatio := -1.0
	for _, candidate := range candidates {
		lum, err := RelativeLuminance(candidate)
		if err != nil {
			return "", err
		}
		if ratio := ContrastRatio(surface, lum); ratio > bestRatio {
			best = candidate
			bestRatio = ratio
		}
	}
	return best, nil
}
