// Package ephemeris computes apparent geocentric equatorial positions for
// the bodies used in line calculations. Planetary positions come from
// truncated VSOP87 series, the Moon from the abridged ELP2000-82 theory,
// Pluto from its dedicated periodic expansion, and Chiron from osculating
// elements with giant-planet perturbations. Nutation and annual aberration
// are applied to all bodies except the Moon.
package ephemeris

import (
	"errors"
	"fmt"
	"strings"
)

// Planet identifies a supported body. The set is closed: anything outside it
// yields ErrUnsupportedBody from the lookup functions.
type Planet int

const (
	Sun Planet = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	Chiron
	NorthNode

	numPlanets
)

// ErrUnsupportedBody reports a body outside the supported set.
var ErrUnsupportedBody = errors.New("unsupported body")

var planetNames = [numPlanets]string{
	"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter",
	"Saturn", "Uranus", "Neptune", "Pluto", "Chiron", "NorthNode",
}

func (p Planet) String() string {
	if p < 0 || p >= numPlanets {
		return fmt.Sprintf("Planet(%d)", int(p))
	}
	return planetNames[p]
}

// Valid reports whether p is inside the supported set.
func (p Planet) Valid() bool {
	return p >= 0 && p < numPlanets
}

// Planets returns all supported bodies in canonical order.
func Planets() []Planet {
	out := make([]Planet, numPlanets)
	for i := range out {
		out[i] = Planet(i)
	}
	return out
}

// ParsePlanet resolves a case-insensitive body name. "north node" and
// "node" are accepted aliases for NorthNode.
func ParsePlanet(s string) (Planet, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "north node", "node", "true node":
		return NorthNode, nil
	}
	for i, n := range planetNames {
		if strings.ToLower(n) == name {
			return Planet(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedBody, s)
}

// MarshalText implements encoding.TextMarshaler for JSON payloads.
func (p Planet) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBody, int(p))
	}
	return []byte(planetNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Planet) UnmarshalText(b []byte) error {
	parsed, err := ParsePlanet(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
