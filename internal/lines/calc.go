package lines

import (
	"math"

	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/geo"
)

// DefaultLongitudeStep is the horizon-curve sampling step in degrees.
const DefaultLongitudeStep = 1.0

// verticalLine builds the constant-longitude polyline used for MC and IC
// lines, sampled every two degrees of latitude.
func verticalLine(longitude float64) []geo.Point {
	points := make([]geo.Point, 0, 90)
	for lat := -89; lat <= 89; lat += 2 {
		points = append(points, geo.Point{Lat: float64(lat), Lng: longitude})
	}
	return points
}

// horizonScan samples the horizon curve of a body across all longitudes,
// keeping the rising or setting branch. In the degenerate all-latitudes
// case the matching branch becomes a vertical segment.
func horizonScan(ra, dec, gmst, step float64, rising bool) []geo.Point {
	var points []geo.Point
	for lng := -180.0; lng <= 180.0; lng += step {
		sol := SolveHorizon(ra, dec, gmst, lng)
		switch sol.Kind {
		case HorizonAllLatitudes:
			if IsRising(ra, gmst, lng) == rising {
				points = append(points, verticalLine(lng)...)
			}
		case HorizonLatitude:
			if IsRising(ra, gmst, lng) == rising {
				points = append(points, geo.Point{Lat: sol.Latitude, Lng: lng})
			}
		}
	}
	return points
}

// PlanetResult bundles the four angle lines and zenith point of one body.
type PlanetResult struct {
	Position ephemeris.Position
	MC       PlanetaryLine
	IC       PlanetaryLine
	Asc      PlanetaryLine
	Dsc      PlanetaryLine
	Zenith   ZenithPoint
}

// ComputePlanet builds the MC, IC, ASC and DSC lines plus the zenith
// point for one body. Horizon curves use a finer 0.5 degree step for
// near-equatorial bodies whose curves bend sharply.
func ComputePlanet(pos ephemeris.Position, gmst, longitudeStep float64) PlanetResult {
	mcLng := MCLongitude(pos.RightAscension, gmst)
	icLng := ICLongitude(pos.RightAscension, gmst)

	step := longitudeStep
	if math.Abs(pos.Declination)*radToDeg < 10.0 {
		step = 0.5
	}

	mc := mcLng
	ic := icLng
	return PlanetResult{
		Position: pos,
		MC: PlanetaryLine{
			Planet:    pos.Planet,
			Type:      MC,
			Points:    verticalLine(mcLng),
			Longitude: &mc,
			Rating:    Rating(pos.Planet, MC),
		},
		IC: PlanetaryLine{
			Planet:    pos.Planet,
			Type:      IC,
			Points:    verticalLine(icLng),
			Longitude: &ic,
			Rating:    Rating(pos.Planet, IC),
		},
		Asc: PlanetaryLine{
			Planet: pos.Planet,
			Type:   Asc,
			Points: horizonScan(pos.RightAscension, pos.Declination, gmst, step, true),
			Rating: Rating(pos.Planet, Asc),
		},
		Dsc: PlanetaryLine{
			Planet: pos.Planet,
			Type:   Dsc,
			Points: horizonScan(pos.RightAscension, pos.Declination, gmst, step, false),
			Rating: Rating(pos.Planet, Dsc),
		},
		Zenith: ZenithPoint{
			Planet:      pos.Planet,
			Latitude:    pos.Declination * radToDeg,
			Longitude:   mcLng,
			Declination: pos.Declination * radToDeg,
		},
	}
}

// ComputeAspects builds the zodiacal aspect lines of one body to all four
// angles. The aspect shifts the body's ecliptic longitude and projects
// the shifted point back to the equator with zero ecliptic latitude; base
// lines use the true position, aspect lines measure along the zodiac.
// Horizon branches that never intersect any latitude are omitted.
func ComputeAspects(pos ephemeris.Position, gmst, obliquity, longitudeStep float64) []AspectLine {
	var out []AspectLine

	for _, kind := range AspectKinds() {
		for _, direction := range []int{-1, 1} {
			shift := kind.AngleDeg() * float64(direction)
			shiftedLon := math.Mod(pos.EclipticLongitude+shift, 360.0)
			if shiftedLon < 0 {
				shiftedLon += 360.0
			}
			ra, dec := ephemeris.EclipticToEquatorial(shiftedLon*degToRad, 0.0, obliquity)

			out = append(out, AspectLine{
				Planet:     pos.Planet,
				Angle:      MC,
				Kind:       kind,
				Direction:  direction,
				Harmonious: kind.Harmonious(),
				Points:     verticalLine(MCLongitude(ra, gmst)),
			})
			out = append(out, AspectLine{
				Planet:     pos.Planet,
				Angle:      IC,
				Kind:       kind,
				Direction:  direction,
				Harmonious: kind.Harmonious(),
				Points:     verticalLine(ICLongitude(ra, gmst)),
			})

			if pts := aspectHorizon(ra, dec, gmst, longitudeStep, true); len(pts) > 0 {
				out = append(out, AspectLine{
					Planet:     pos.Planet,
					Angle:      Asc,
					Kind:       kind,
					Direction:  direction,
					Harmonious: kind.Harmonious(),
					Points:     pts,
				})
			}
			if pts := aspectHorizon(ra, dec, gmst, longitudeStep, false); len(pts) > 0 {
				out = append(out, AspectLine{
					Planet:     pos.Planet,
					Angle:      Dsc,
					Kind:       kind,
					Direction:  direction,
					Harmonious: kind.Harmonious(),
					Points:     pts,
				})
			}
		}
	}

	return out
}

// aspectHorizon is the horizon scan for aspect points. The shifted point
// sits on the ecliptic so the degenerate vertical case cannot occur
// except at the equinoctial points, where a gap is acceptable.
func aspectHorizon(ra, dec, gmst, step float64, rising bool) []geo.Point {
	var points []geo.Point
	for lng := -180.0; lng <= 180.0; lng += step {
		sol := SolveHorizon(ra, dec, gmst, lng)
		if sol.Kind != HorizonLatitude {
			continue
		}
		if IsRising(ra, gmst, lng) == rising {
			points = append(points, geo.Point{Lat: sol.Latitude, Lng: lng})
		}
	}
	return points
}

// paranAnglePairs enumerates the angle combinations checked for crossings.
var paranAnglePairs = [6][2]LineType{
	{MC, Asc}, {MC, Dsc}, {MC, IC},
	{IC, Asc}, {IC, Dsc}, {Asc, Dsc},
}

// ComputeParans finds the line crossings between every pair of bodies for
// all angle combinations, checking both orderings of each pair.
func ComputeParans(positions []ephemeris.Position, gmst float64) []Paran {
	var out []Paran
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			for _, pair := range paranAnglePairs {
				out = append(out, paranFor(positions[i], positions[j], pair[0], pair[1], gmst)...)
				out = append(out, paranFor(positions[j], positions[i], pair[0], pair[1], gmst)...)
			}
		}
	}
	return out
}

// angleLongitudeAt returns the longitude where a body stands on the given
// angle at a latitude. MC and IC lines are vertical so the latitude is
// irrelevant; for ASC/DSC the horizon hour angle cos(H) = -tan(phi)tan(delta)
// has no solution where the body is circumpolar or never rises.
func angleLongitudeAt(ra, dec, gmst, latitudeDeg float64, angle LineType) (float64, bool) {
	switch angle {
	case MC:
		return MCLongitude(ra, gmst), true
	case IC:
		return ICLongitude(ra, gmst), true
	case Asc, Dsc:
		cosH := -math.Tan(latitudeDeg*degToRad) * math.Tan(dec)
		if math.Abs(cosH) > 1.0 {
			return 0, false
		}
		h := math.Acos(cosH)
		if angle == Asc {
			h = -h
		}
		return wrapLongitude(ra + h - gmst), true
	}
	return 0, false
}

// lngSeparation is the absolute longitude difference accounting for wrap.
func lngSeparation(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180.0 {
		d = 360.0 - d
	}
	return d
}

func paranFor(pos1, pos2 ephemeris.Position, angle1, angle2 LineType, gmst float64) []Paran {
	vertical1 := angle1 == MC || angle1 == IC
	vertical2 := angle2 == MC || angle2 == IC

	// Both vertical: the lines either coincide or never meet.
	if vertical1 && vertical2 {
		lng1, _ := angleLongitudeAt(pos1.RightAscension, pos1.Declination, gmst, 0, angle1)
		lng2, _ := angleLongitudeAt(pos2.RightAscension, pos2.Declination, gmst, 0, angle2)
		if lngSeparation(lng1, lng2) < 2.0 {
			return []Paran{{
				Planet1: pos1.Planet, Angle1: angle1,
				Planet2: pos2.Planet, Angle2: angle2,
				Latitude: 0.0, Longitude: lng1,
			}}
		}
		return nil
	}

	// Vertical against curved: scan latitudes for the curve crossing the
	// fixed meridian.
	if vertical1 {
		fixedLng, _ := angleLongitudeAt(pos1.RightAscension, pos1.Declination, gmst, 0, angle1)

		bestDiff := math.Inf(1)
		bestLat := 0.0
		found := false
		for lat := -66.0; lat <= 66.0; lat += 0.25 {
			lng2, ok := angleLongitudeAt(pos2.RightAscension, pos2.Declination, gmst, lat, angle2)
			if !ok {
				continue
			}
			if diff := lngSeparation(fixedLng, lng2); diff < 1.0 && diff < bestDiff {
				bestDiff = diff
				bestLat = lat
				found = true
			}
		}
		if !found {
			return nil
		}
		return []Paran{{
			Planet1: pos1.Planet, Angle1: angle1,
			Planet2: pos2.Planet, Angle2: angle2,
			Latitude: bestLat, Longitude: fixedLng,
		}}
	}

	// Both curved: scan latitudes for the closest longitude agreement.
	bestDiff := math.Inf(1)
	bestLat, bestLng := 0.0, 0.0
	found := false
	for lat := -66.0; lat <= 66.0; lat += 0.25 {
		lng1, ok1 := angleLongitudeAt(pos1.RightAscension, pos1.Declination, gmst, lat, angle1)
		lng2, ok2 := angleLongitudeAt(pos2.RightAscension, pos2.Declination, gmst, lat, angle2)
		if !ok1 || !ok2 {
			continue
		}
		diff := lngSeparation(lng1, lng2)
		if diff < 1.0 && diff < bestDiff {
			bestDiff = diff
			bestLat = lat
			bestLng = averageLongitude(lng1, lng2)
			found = true
		}
	}
	if !found {
		return nil
	}
	return []Paran{{
		Planet1: pos1.Planet, Angle1: angle1,
		Planet2: pos2.Planet, Angle2: angle2,
		Latitude: bestLat, Longitude: bestLng,
	}}
}

// averageLongitude is the midpoint of two longitudes, shifted through 360
// when they straddle the dateline.
func averageLongitude(lng1, lng2 float64) float64 {
	if math.Abs(lng1-lng2) > 180.0 {
		n1 := lng1
		if n1 < 0 {
			n1 += 360.0
		}
		n2 := lng2
		if n2 < 0 {
			n2 += 360.0
		}
		avg := (n1 + n2) / 2.0
		if avg > 180.0 {
			avg -= 360.0
		}
		return avg
	}
	return (lng1 + lng2) / 2.0
}

// Set is the complete line geometry for one chart moment.
type Set struct {
	JulianDate float64              `json:"julianDate"`
	GMST       float64              `json:"gmst"`
	Positions  []ephemeris.Position `json:"planetaryPositions"`
	Planetary  []PlanetaryLine      `json:"planetaryLines"`
	Aspects    []AspectLine         `json:"aspectLines"`
	Parans     []Paran              `json:"paranLines"`
	Zeniths    []ZenithPoint        `json:"zenithPoints"`
}

// ComputeAll builds the full line set for a moment sequentially. The
// engine package provides the concurrent equivalent; both must agree.
func ComputeAll(inst ephemeris.Instant, longitudeStep float64) (*Set, error) {
	if longitudeStep <= 0 {
		longitudeStep = DefaultLongitudeStep
	}

	set := &Set{JulianDate: inst.JDUTC, GMST: inst.GMST}
	for _, p := range ephemeris.Planets() {
		pos, err := ephemeris.PositionAt(p, inst)
		if err != nil {
			return nil, err
		}
		set.Positions = append(set.Positions, pos)

		pr := ComputePlanet(pos, inst.GMST, longitudeStep)
		set.Planetary = append(set.Planetary, pr.MC, pr.IC, pr.Asc, pr.Dsc)
		set.Zeniths = append(set.Zeniths, pr.Zenith)
		set.Aspects = append(set.Aspects, ComputeAspects(pos, inst.GMST, inst.TrueObliquity, longitudeStep)...)
	}
	set.Parans = ComputeParans(set.Positions, inst.GMST)
	return set, nil
}
