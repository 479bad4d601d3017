// Package scoring turns line-to-city distances into bounded benefit,
// intensity and volatility scores, with per-category nature tables and
// distance decay kernels.
package scoring

import (
	"fmt"
	"math"
)

// Kernel selects the distance decay shape.
type Kernel int

const (
	// Linear falls from 1 at the line to 0 at the bandwidth.
	Linear Kernel = iota
	// Gaussian is a smooth bell with the parameter as sigma.
	Gaussian
	// Exponential decays with the parameter as the e-folding length.
	Exponential
)

var kernelNames = [...]string{"linear", "gaussian", "exponential"}

func (k Kernel) String() string {
	if k < Linear || k > Exponential {
		return fmt.Sprintf("Kernel(%d)", int(k))
	}
	return kernelNames[k]
}

// ParseKernel maps a kernel name to its constant.
func ParseKernel(s string) (Kernel, error) {
	for i, n := range kernelNames {
		if n == s {
			return Kernel(i), nil
		}
	}
	return 0, fmt.Errorf("scoring: unknown kernel %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kernel) MarshalText() ([]byte, error) {
	if k < Linear || k > Exponential {
		return nil, fmt.Errorf("scoring: invalid kernel %d", int(k))
	}
	return []byte(kernelNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kernel) UnmarshalText(b []byte) error {
	parsed, err := ParseKernel(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Apply evaluates the kernel at a distance. The result is in [0, 1] with
// the maximum at distance zero.
func (k Kernel) Apply(distanceKm, parameterKm float64) float64 {
	switch k {
	case Linear:
		return math.Max(0.0, 1.0-distanceKm/parameterKm)
	case Gaussian:
		r := distanceKm / parameterKm
		return math.Exp(-0.5 * r * r)
	case Exponential:
		return math.Exp(-distanceKm / parameterKm)
	}
	return 0.0
}
