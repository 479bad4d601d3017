package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/astro/astrogo/internal/astrotime"
	"github.com/astro/astrogo/internal/ephemeris"
	"github.com/astro/astrogo/internal/lines"
)

func main() {
	birthFlag := flag.String("t", "1990-06-15T14:30:00Z", "birth moment (RFC3339, UTC)")
	latFlag := flag.Float64("lat", 40.7128, "birthplace latitude for local-space rays")
	lonFlag := flag.Float64("lon", -74.0060, "birthplace longitude for local-space rays")
	stepFlag := flag.Float64("step", 2.0, "line sampling step in degrees of longitude")
	flag.Parse()

	birth, err := time.Parse(time.RFC3339, *birthFlag)
	if err != nil {
		fmt.Println("ERROR parsing -t:", err)
		os.Exit(1)
	}
	birth = birth.UTC()

	jd, err := astrotime.ToJulianDate(birth.Year(), int(birth.Month()), birth.Day(),
		birth.Hour(), birth.Minute(), float64(birth.Second()))
	if err != nil {
		fmt.Println("ERROR converting to julian date:", err)
		os.Exit(1)
	}

	inst := ephemeris.NewInstant(jd)
	fmt.Printf("Chart moment: %s (JD %.6f, GMST %.6f rad)\n", birth.Format(time.RFC3339), inst.JDUTC, inst.GMST)

	positions, err := ephemeris.AllPositions(inst)
	if err != nil {
		fmt.Println("ERROR computing positions:", err)
		os.Exit(1)
	}
	const radToDeg = 180.0 / math.Pi
	fmt.Println("\nPlanetary positions:")
	for _, pos := range positions {
		fmt.Printf("  %-12s RA %8.4f°  Dec %8.4f°  Lon %8.4f°\n",
			pos.Planet, pos.RightAscension*radToDeg, pos.Declination*radToDeg, pos.EclipticLongitude)
	}

	set, err := lines.ComputeAll(inst, *stepFlag)
	if err != nil {
		fmt.Println("ERROR computing lines:", err)
		os.Exit(1)
	}

	fmt.Printf("\nLine set: %d planetary, %d aspect, %d parans, %d zeniths\n",
		len(set.Planetary), len(set.Aspects), len(set.Parans), len(set.Zeniths))
	for _, ln := range set.Planetary {
		if ln.Longitude != nil {
			fmt.Printf("  %-12s %-4s rating %d at lon %8.4f°\n", ln.Planet, ln.Type, ln.Rating, *ln.Longitude)
		} else {
			fmt.Printf("  %-12s %-4s rating %d (%d points)\n", ln.Planet, ln.Type, ln.Rating, len(ln.Points))
		}
	}

	rays, err := lines.ComputeAllLocalSpace(inst, *latFlag, *lonFlag, 0, 0)
	if err != nil {
		fmt.Println("ERROR computing local space:", err)
		os.Exit(1)
	}

	fmt.Printf("\nLocal-space rays from (%.4f, %.4f):\n", *latFlag, *lonFlag)
	for _, ray := range rays {
		fmt.Printf("  %-12s az %7.2f°  alt %7.2f°  %s\n", ray.Planet, ray.Azimuth, ray.Altitude, ray.Direction)
	}
}
