package scoring

import (
	"fmt"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/lines"
)

// Aspect is the zodiacal relation carried by an influence. Base lines
// have no aspect; aspect lines modulate both polarity and intensity.
type Aspect int

const (
	Conjunction Aspect = iota
	Trine
	Sextile
	Square
	Quincunx
	Opposition
	Sesquisquare
)

var aspectNames = [...]string{
	"conjunction", "trine", "sextile", "square",
	"quincunx", "opposition", "sesquisquare",
}

func (a Aspect) String() string {
	if a < Conjunction || a > Sesquisquare {
		return fmt.Sprintf("Aspect(%d)", int(a))
	}
	return aspectNames[a]
}

// ParseAspect maps an aspect name to its constant.
func ParseAspect(s string) (Aspect, error) {
	for i, n := range aspectNames {
		if n == s {
			return Aspect(i), nil
		}
	}
	return 0, fmt.Errorf("scoring: unknown aspect %q", s)
}

// AspectFromLine maps a rendered aspect line kind to the scoring aspect.
func AspectFromLine(k lines.AspectKind) Aspect {
	switch k {
	case lines.Trine:
		return Trine
	case lines.Sextile:
		return Sextile
	case lines.Square:
		return Square
	}
	return Conjunction
}

var aspectBenefitMult = [...]float64{1.0, 0.7, 0.7, -0.6, 0.3, -0.5, -0.4}
var aspectIntensityMult = [...]float64{1.0, 0.6, 0.6, 0.85, 0.4, 0.8, 0.7}

// BenefitMultiplier scales and possibly flips the benefit of a line. A
// negative value turns a supportive line challenging and vice versa.
func (a Aspect) BenefitMultiplier() float64 { return aspectBenefitMult[a] }

// IntensityMultiplier scales the felt strength of a line.
func (a Aspect) IntensityMultiplier() float64 { return aspectIntensityMult[a] }

// Category is a life area cities are ranked for.
type Category int

const (
	Career Category = iota
	Love
	Health
	Home
	Wellbeing
	Wealth
)

var categoryNames = [...]string{
	"career", "love", "health", "home", "wellbeing", "wealth",
}

func (c Category) String() string {
	if c < Career || c > Wealth {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory maps a category name to its constant.
func ParseCategory(s string) (Category, error) {
	for i, n := range categoryNames {
		if n == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("scoring: unknown category %q", s)
}

// Categories returns all life areas in canonical order.
func Categories() []Category {
	return []Category{Career, Love, Health, Home, Wellbeing, Wealth}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if c < Career || c > Wealth {
		return nil, fmt.Errorf("scoring: invalid category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type lineKey struct {
	planet ephemeris.Planet
	angle  lines.LineType
}

func keys(pairs ...lineKey) map[lineKey]struct{} {
	m := make(map[lineKey]struct{}, len(pairs))
	for _, p := range pairs {
		m[p] = struct{}{}
	}
	return m
}

// beneficialLines is the traditional placement table of supportive lines
// per life area.
var beneficialLines = map[Category]map[lineKey]struct{}{
	Career: keys(
		lineKey{ephemeris.Sun, lines.MC}, lineKey{ephemeris.Jupiter, lines.MC},
		lineKey{ephemeris.Mercury, lines.MC}, lineKey{ephemeris.Venus, lines.MC},
		lineKey{ephemeris.Mars, lines.MC}, lineKey{ephemeris.Saturn, lines.MC},
		lineKey{ephemeris.Pluto, lines.MC},
		lineKey{ephemeris.Sun, lines.Asc}, lineKey{ephemeris.Mars, lines.Asc},
		lineKey{ephemeris.Jupiter, lines.Asc}, lineKey{ephemeris.Mercury, lines.Asc},
	),
	Love: keys(
		lineKey{ephemeris.Venus, lines.Dsc}, lineKey{ephemeris.Sun, lines.Dsc},
		lineKey{ephemeris.Jupiter, lines.Dsc}, lineKey{ephemeris.Moon, lines.Dsc},
		lineKey{ephemeris.Venus, lines.Asc}, lineKey{ephemeris.Sun, lines.Asc},
		lineKey{ephemeris.Mars, lines.Asc}, lineKey{ephemeris.Jupiter, lines.Asc},
	),
	Health: keys(
		lineKey{ephemeris.Sun, lines.Asc}, lineKey{ephemeris.Jupiter, lines.Asc},
		lineKey{ephemeris.Moon, lines.Asc}, lineKey{ephemeris.Mars, lines.Asc},
		lineKey{ephemeris.Venus, lines.IC}, lineKey{ephemeris.Jupiter, lines.MC},
		lineKey{ephemeris.Venus, lines.MC}, lineKey{ephemeris.Sun, lines.IC},
		lineKey{ephemeris.Moon, lines.IC},
	),
	Home: keys(
		lineKey{ephemeris.Venus, lines.IC}, lineKey{ephemeris.Moon, lines.IC},
		lineKey{ephemeris.Jupiter, lines.IC}, lineKey{ephemeris.Sun, lines.IC},
		lineKey{ephemeris.Saturn, lines.IC}, lineKey{ephemeris.Mercury, lines.IC},
		lineKey{ephemeris.Venus, lines.Asc}, lineKey{ephemeris.Moon, lines.Asc},
		lineKey{ephemeris.Jupiter, lines.Asc},
	),
	Wellbeing: keys(
		lineKey{ephemeris.Venus, lines.Asc}, lineKey{ephemeris.Venus, lines.IC},
		lineKey{ephemeris.Venus, lines.Dsc},
		lineKey{ephemeris.Jupiter, lines.Asc}, lineKey{ephemeris.Jupiter, lines.MC},
		lineKey{ephemeris.Jupiter, lines.IC}, lineKey{ephemeris.Jupiter, lines.Dsc},
		lineKey{ephemeris.Moon, lines.IC}, lineKey{ephemeris.Moon, lines.Asc},
		lineKey{ephemeris.Sun, lines.Asc}, lineKey{ephemeris.Sun, lines.IC},
		lineKey{ephemeris.Neptune, lines.Asc},
	),
	Wealth: keys(
		lineKey{ephemeris.Jupiter, lines.MC}, lineKey{ephemeris.Jupiter, lines.IC},
		lineKey{ephemeris.Jupiter, lines.Asc}, lineKey{ephemeris.Jupiter, lines.Dsc},
		lineKey{ephemeris.Venus, lines.MC}, lineKey{ephemeris.Venus, lines.Asc},
		lineKey{ephemeris.Sun, lines.MC}, lineKey{ephemeris.Sun, lines.Asc},
		lineKey{ephemeris.Mercury, lines.MC}, lineKey{ephemeris.Mercury, lines.Asc},
		lineKey{ephemeris.Pluto, lines.MC},
	),
}

// challengingLines lists the placements traditionally read as difficult.
// Pluto on the MC is intentionally absent from Career: intense but useful
// there.
var challengingLines = map[Category]map[lineKey]struct{}{
	Career: keys(
		lineKey{ephemeris.Neptune, lines.MC}, lineKey{ephemeris.Uranus, lines.MC},
		lineKey{ephemeris.Moon, lines.MC},
	),
	Love: keys(
		lineKey{ephemeris.Saturn, lines.Dsc}, lineKey{ephemeris.Pluto, lines.Dsc},
		lineKey{ephemeris.Mars, lines.Dsc}, lineKey{ephemeris.Uranus, lines.Dsc},
		lineKey{ephemeris.Neptune, lines.Dsc},
	),
	Health: keys(
		lineKey{ephemeris.Saturn, lines.Asc}, lineKey{ephemeris.Saturn, lines.MC},
		lineKey{ephemeris.Neptune, lines.Asc}, lineKey{ephemeris.Pluto, lines.Asc},
		lineKey{ephemeris.Uranus, lines.Asc},
	),
	Home: keys(
		lineKey{ephemeris.Uranus, lines.IC}, lineKey{ephemeris.Neptune, lines.IC},
		lineKey{ephemeris.Pluto, lines.IC}, lineKey{ephemeris.Saturn, lines.IC},
		lineKey{ephemeris.Mars, lines.IC},
	),
	Wellbeing: keys(
		lineKey{ephemeris.Saturn, lines.Asc}, lineKey{ephemeris.Saturn, lines.MC},
		lineKey{ephemeris.Neptune, lines.MC}, lineKey{ephemeris.Pluto, lines.Asc},
		lineKey{ephemeris.Pluto, lines.MC}, lineKey{ephemeris.Mars, lines.Asc},
	),
	Wealth: keys(
		lineKey{ephemeris.Neptune, lines.MC}, lineKey{ephemeris.Neptune, lines.IC},
		lineKey{ephemeris.Uranus, lines.MC}, lineKey{ephemeris.Uranus, lines.IC},
		lineKey{ephemeris.Saturn, lines.Asc},
	),
}

// BeneficialFor reports whether a line supports the category.
func BeneficialFor(p ephemeris.Planet, angle lines.LineType, c Category) bool {
	_, ok := beneficialLines[c][lineKey{p, angle}]
	return ok
}

// ChallengingFor reports whether a line works against the category.
func ChallengingFor(p ephemeris.Planet, angle lines.LineType, c Category) bool {
	_, ok := challengingLines[c][lineKey{p, angle}]
	return ok
}

// RelevantFor reports whether a line appears in either category table.
// Lines outside both tables are neutral and ignored for that category.
func RelevantFor(p ephemeris.Planet, angle lines.LineType, c Category) bool {
	return BeneficialFor(p, angle, c) || ChallengingFor(p, angle, c)
}
