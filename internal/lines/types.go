// Package lines computes astrocartography line geometry: meridian (MC/IC)
// and horizon (ASC/DSC) lines for each body, zenith points, zodiacal
// aspect lines, paran crossings and local space direction lines.
package lines

import (
	"fmt"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/geo"
)

// LineType identifies which of the four angles a line belongs to.
type LineType int

const (
	MC LineType = iota
	IC
	Asc
	Dsc
)

var lineTypeNames = [...]string{"MC", "IC", "ASC", "DSC"}

func (t LineType) String() string {
	if t < MC || t > Dsc {
		return fmt.Sprintf("LineType(%d)", int(t))
	}
	return lineTypeNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t LineType) MarshalText() ([]byte, error) {
	if t < MC || t > Dsc {
		return nil, fmt.Errorf("lines: invalid line type %d", int(t))
	}
	return []byte(lineTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LineType) UnmarshalText(b []byte) error {
	for i, n := range lineTypeNames {
		if n == string(b) {
			*t = LineType(i)
			return nil
		}
	}
	return fmt.Errorf("lines: unknown line type %q", b)
}

// LineTypes returns the four angles in canonical order.
func LineTypes() []LineType { return []LineType{MC, IC, Asc, Dsc} }

// AspectKind identifies a zodiacal aspect rendered as its own line.
// Only the three rendered aspects appear here; scoring knows more.
type AspectKind int

const (
	Trine AspectKind = iota
	Sextile
	Square
)

var aspectInfo = [...]struct {
	name       string
	angleDeg   float64
	harmonious bool
}{
	{"trine", 120.0, true},
	{"sextile", 60.0, true},
	{"square", 90.0, false},
}

func (k AspectKind) String() string { return aspectInfo[k].name }

// AngleDeg is the zodiacal separation of the aspect in degrees.
func (k AspectKind) AngleDeg() float64 { return aspectInfo[k].angleDeg }

// Harmonious reports whether the aspect is traditionally supportive.
func (k AspectKind) Harmonious() bool { return aspectInfo[k].harmonious }

// AspectKinds returns the rendered aspects in canonical order.
func AspectKinds() []AspectKind { return []AspectKind{Trine, Sextile, Square} }

// PlanetaryLine is one angle line for one body. Longitude is set for the
// vertical MC/IC lines and nil for the curved horizon lines.
type PlanetaryLine struct {
	Planet    ephemeris.Planet `json:"planet"`
	Type      LineType         `json:"lineType"`
	Points    []geo.Point      `json:"points"`
	Longitude *float64         `json:"longitude,omitempty"`
	Rating    int              `json:"rating"`
}

// AspectLine is a zodiacal aspect projected onto an angle. Direction +1 is
// the applying shift, -1 the separating one.
type AspectLine struct {
	Planet     ephemeris.Planet `json:"planet"`
	Angle      LineType         `json:"angle"`
	Kind       AspectKind       `json:"aspect"`
	Direction  int              `json:"direction"`
	Harmonious bool             `json:"isHarmonious"`
	Points     []geo.Point      `json:"points"`
}

// ZenithPoint marks where a body passes directly overhead.
type ZenithPoint struct {
	Planet      ephemeris.Planet `json:"planet"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Declination float64          `json:"declination"`
}

// Paran is a crossing of two planetary lines, the classical paranatellonta.
type Paran struct {
	Planet1   ephemeris.Planet `json:"planet1"`
	Angle1    LineType         `json:"angle1"`
	Planet2   ephemeris.Planet `json:"planet2"`
	Angle2    LineType         `json:"angle2"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
}

// LocalSpaceLine is a direction line radiating from the birth place along
// a body's azimuth.
type LocalSpaceLine struct {
	Planet    ephemeris.Planet `json:"planet"`
	Azimuth   float64          `json:"azimuth"`
	Altitude  float64          `json:"altitude"`
	Direction string           `json:"direction"`
	Points    []geo.Point      `json:"points"`
}

// ratings maps body and angle to a 1-5 strength rating. Benefics carry
// high ratings everywhere, luminaries are strong on the meridian, the
// traditional malefics sit low.
var ratings = map[ephemeris.Planet][4]int{
	ephemeris.Sun:       {5, 3, 4, 3},
	ephemeris.Moon:      {3, 4, 4, 4},
	ephemeris.Mercury:   {4, 3, 4, 3},
	ephemeris.Venus:     {4, 5, 5, 5},
	ephemeris.Mars:      {3, 2, 3, 2},
	ephemeris.Jupiter:   {5, 4, 5, 4},
	ephemeris.Saturn:    {2, 2, 1, 2},
	ephemeris.Uranus:    {2, 2, 3, 2},
	ephemeris.Neptune:   {2, 3, 2, 3},
	ephemeris.Pluto:     {3, 2, 2, 2},
	ephemeris.Chiron:    {3, 3, 2, 3},
	ephemeris.NorthNode: {4, 3, 3, 3},
}

// Rating returns the 1-5 strength rating of a body on an angle. Unknown
// bodies rate neutral.
func Rating(p ephemeris.Planet, t LineType) int {
	r, ok := ratings[p]
	if !ok || t < MC || t > Dsc {
		return 3
	}
	return r[t]
}
